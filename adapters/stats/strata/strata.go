// Package strata assigns assessed transcripts to ordered bins of a covariate
// so accuracy can be reported as a function of it.
package strata

import (
	"fmt"
	"sort"
	"strconv"

	"piquant/domain/abundance"
	"piquant/domain/core"
	"piquant/internal/errors"
)

// Stratifier maps a record to an ordinal bin. Bins sort ascending by index.
type Stratifier interface {
	Name() string
	Bin(r abundance.Record) (int, error)
	Label(bin int) string
}

const (
	GeneTranscriptNumber     = "gene transcript number"
	RealAbundance            = "log10 real TPM"
	TranscriptLength         = "transcript length"
	UniqueSequencePercentage = "unique sequence percentage"
)

// BuildRegistry returns every stratifier in reporting order
func BuildRegistry() []Stratifier {
	return []Stratifier{
		geneTranscriptNumber{},
		NewLevels(RealAbundance, []float64{0, 0.5, 1, 1.5}, false,
			func(r abundance.Record) float64 { return r.LogReal }),
		NewLevels(TranscriptLength, []float64{1000, 3162}, false,
			func(r abundance.Record) float64 { return float64(r.Length) }),
		NewLevels(UniqueSequencePercentage, []float64{20, 40, 60, 80, 100}, true,
			abundance.Record.UniqueSequencePercentage),
	}
}

// geneTranscriptNumber bins by the number of isoforms of the transcript's
// gene; bin index is the count itself.
type geneTranscriptNumber struct{}

func (geneTranscriptNumber) Name() string { return GeneTranscriptNumber }

func (geneTranscriptNumber) Bin(r abundance.Record) (int, error) {
	return r.TranscriptCount, nil
}

func (geneTranscriptNumber) Label(bin int) string { return strconv.Itoa(bin) }

// Levels bins a derived scalar against sorted thresholds: bin i holds values
// <= levels[i]. An open stratifier collects values above the last level in
// one extra bin; a closed one treats them as an internal error.
type Levels struct {
	name    string
	levels  []float64
	closed  bool
	extract func(abundance.Record) float64
}

func NewLevels(name string, levels []float64, closed bool, extract func(abundance.Record) float64) *Levels {
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)
	return &Levels{name: name, levels: sorted, closed: closed, extract: extract}
}

func (l *Levels) Name() string { return l.name }

func (l *Levels) Closed() bool { return l.closed }

// NumBins is the number of bins the stratifier can produce
func (l *Levels) NumBins() int {
	if l.closed {
		return len(l.levels)
	}
	return len(l.levels) + 1
}

func (l *Levels) Bin(r abundance.Record) (int, error) {
	return l.BinValue(l.extract(r))
}

// BinValue scans the levels in order. NaN never satisfies a level.
func (l *Levels) BinValue(v float64) (int, error) {
	for i, level := range l.levels {
		if v <= level {
			return i, nil
		}
	}
	if l.closed {
		return 0, errors.WrapCode(core.ErrOutOfLevels, errors.CodeInternalError,
			"%s value %v, levels %v", l.name, v, l.levels)
	}
	return len(l.levels), nil
}

func (l *Levels) Label(bin int) string {
	if bin < len(l.levels) {
		return "<= " + format(l.levels[bin])
	}
	return "> " + format(l.levels[len(l.levels)-1])
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Group is the records of one bin
type Group struct {
	Bin     int
	Label   string
	Records abundance.Table
}

// Partition splits the table into non-empty bins, ascending
func Partition(s Stratifier, table abundance.Table) ([]Group, error) {
	byBin := make(map[int]abundance.Table)
	for _, r := range table {
		bin, err := s.Bin(r)
		if err != nil {
			return nil, errors.Wrapf(err, "stratify %s by %s", r.TranscriptID, s.Name())
		}
		byBin[bin] = append(byBin[bin], r)
	}

	bins := make([]int, 0, len(byBin))
	for b := range byBin {
		bins = append(bins, b)
	}
	sort.Ints(bins)

	groups := make([]Group, len(bins))
	for i, b := range bins {
		groups[i] = Group{Bin: b, Label: s.Label(b), Records: byBin[b]}
	}
	return groups, nil
}

// Lookup finds a stratifier by name
func Lookup(stratifiers []Stratifier, name string) (Stratifier, error) {
	for _, s := range stratifiers {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown stratifier %q", name)
}
