// Package accuracy holds the statistics computed over an assessed abundance
// table. Every statistic works on any subset of records, so the same value
// can be reported overall and per stratum.
package accuracy

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"piquant/domain/abundance"
)

// Statistic computes one scalar from a set of records. NaN means undefined.
type Statistic interface {
	Name() string
	Compute(table abundance.Table) float64
}

const (
	NumTPMs              = "num-tpms"
	NumTruePositiveTPMs  = "tp-num-tpms"
	LogTPMRho            = "tp-log-tpm-rho"
	MedianPercentError   = "tp-median-percent-error"
	SensitivityStatistic = "sensitivity"
	SpecificityStatistic = "specificity"
)

// BuildRegistry returns every statistic in reporting order
func BuildRegistry() []Statistic {
	return []Statistic{
		Func(NumTPMs, numRecords),
		Func(NumTruePositiveTPMs, numTruePositives),
		Func(LogTPMRho, logRho),
		Func(MedianPercentError, medianPercentError),
		Func(SensitivityStatistic, Sensitivity),
		Func(SpecificityStatistic, Specificity),
	}
}

// Names lists the statistic names in order
func Names(statistics []Statistic) []string {
	names := make([]string, len(statistics))
	for i, s := range statistics {
		names[i] = s.Name()
	}
	return names
}

type funcStatistic struct {
	name string
	fn   func(abundance.Table) float64
}

// Func adapts a plain function to a Statistic
func Func(name string, fn func(abundance.Table) float64) Statistic {
	return funcStatistic{name: name, fn: fn}
}

func (f funcStatistic) Name() string                          { return f.name }
func (f funcStatistic) Compute(table abundance.Table) float64 { return f.fn(table) }

func numRecords(t abundance.Table) float64 {
	return float64(len(t))
}

func numTruePositives(t abundance.Table) float64 {
	tp, _, _, _ := t.Counts()
	return float64(tp)
}

// logRho is the Spearman correlation of log10 real and log10 calculated
// abundance over true positives.
func logRho(t abundance.Table) float64 {
	tps := t.TruePositives()
	if len(tps) < 2 {
		return math.NaN()
	}
	logReal := make([]float64, len(tps))
	logCalc := make([]float64, len(tps))
	for i, r := range tps {
		logReal[i] = r.LogReal
		logCalc[i] = r.LogCalculated
	}
	return Spearman(logReal, logCalc)
}

// Spearman is the Pearson correlation of the tie-averaged ranks. It is NaN
// for fewer than two pairs or when either side has no variance.
func Spearman(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(ranks(x), ranks(y), nil)
}

// ranks converts values to 1-based ranks, averaging ties
func ranks(data []float64) []float64 {
	n := len(data)
	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, v := range data {
		pairs[i] = pair{value: v, index: i}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		avg := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			out[pairs[k].index] = avg
		}
		i = j
	}
	return out
}

func medianPercentError(t abundance.Table) float64 {
	tps := t.TruePositives()
	errs := make(mstats.Float64Data, 0, len(tps))
	for _, r := range tps {
		errs = append(errs, r.PercentError)
	}
	m, err := mstats.Median(errs)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Sensitivity is TP/(TP+FN), and 1 when there are no real positives
func Sensitivity(t abundance.Table) float64 {
	tp, _, _, fn := t.Counts()
	if tp+fn == 0 {
		return 1
	}
	return float64(tp) / float64(tp+fn)
}

// Specificity is TN/(TN+FP), and 1 when there are no real negatives
func Specificity(t abundance.Table) float64 {
	_, fp, tn, _ := t.Counts()
	if tn+fp == 0 {
		return 1
	}
	return float64(tn) / float64(tn+fp)
}
