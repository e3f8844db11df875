// Package engine scores a merged abundance table with every registered
// statistic, overall and within the bins of every stratifier.
package engine

import (
	"piquant/adapters/stats/accuracy"
	"piquant/adapters/stats/strata"
	"piquant/domain/abundance"
	"piquant/domain/core"
	"piquant/domain/stats"
	"piquant/internal/errors"
)

// Engine provides statistical assessment of abundance tables
type Engine struct {
	statistics  []accuracy.Statistic
	stratifiers []strata.Stratifier
}

// New creates an engine with the built-in statistics and stratifiers
func New() *Engine {
	return NewWith(accuracy.BuildRegistry(), strata.BuildRegistry())
}

// NewWith creates an engine over explicit registries
func NewWith(statistics []accuracy.Statistic, stratifiers []strata.Stratifier) *Engine {
	return &Engine{statistics: statistics, stratifiers: stratifiers}
}

// Statistics returns the statistic names in reporting order
func (e *Engine) Statistics() []string {
	return accuracy.Names(e.statistics)
}

// Stratifiers returns the stratifier names in reporting order
func (e *Engine) Stratifiers() []string {
	names := make([]string, len(e.stratifiers))
	for i, s := range e.stratifiers {
		names[i] = s.Name()
	}
	return names
}

// Assess computes every statistic over the table, then over each non-empty
// bin of every stratifier. Bins are ascending.
func (e *Engine) Assess(runName string, table abundance.Table) (*stats.Assessment, error) {
	if len(table) == 0 {
		return nil, errors.WrapCode(core.ErrEmptyTable, errors.CodeInvalidInput, "assess %s", runName)
	}

	a := &stats.Assessment{
		RunName:    runName,
		Statistics: e.Statistics(),
		Overall:    e.compute(table),
		Strata:     make([]stats.Stratification, 0, len(e.stratifiers)),
	}

	for _, s := range e.stratifiers {
		groups, err := strata.Partition(s, table)
		if err != nil {
			return nil, err
		}
		st := stats.Stratification{Stratifier: s.Name(), Bins: make([]stats.Bin, len(groups))}
		for i, g := range groups {
			st.Bins[i] = stats.Bin{Index: g.Bin, Label: g.Label, Values: e.compute(g.Records)}
		}
		a.Strata = append(a.Strata, st)
	}
	return a, nil
}

func (e *Engine) compute(table abundance.Table) map[string]float64 {
	values := make(map[string]float64, len(e.statistics))
	for _, s := range e.statistics {
		values[s.Name()] = s.Compute(table)
	}
	return values
}
