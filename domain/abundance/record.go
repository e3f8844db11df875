// Package abundance joins ground-truth and calculated transcript abundances
// into classified records.
package abundance

import "math"

// DefaultDetectionThreshold is the TPM at or below which a transcript is
// considered not expressed.
const DefaultDetectionThreshold = 0.1

// Truth is one ground-truth row: a simulated transcript and its real
// abundance, already normalised to one million total.
type Truth struct {
	TranscriptID    string
	Length          int
	UniqueLength    int
	TranscriptCount int
	Real            float64
}

// Lookup returns the calculated abundance of a transcript, and false when
// the method reported nothing for it.
type Lookup func(transcriptID string) (float64, bool)

// MapLookup adapts a plain map to a Lookup
func MapLookup(m map[string]float64) Lookup {
	return func(id string) (float64, bool) {
		v, ok := m[id]
		return v, ok
	}
}

// Classification of a record by thresholding real and calculated abundance.
// Exactly one applies to every record.
type Classification int

const (
	TrueNegative Classification = iota
	TruePositive
	FalsePositive
	FalseNegative
)

func (c Classification) String() string {
	switch c {
	case TruePositive:
		return "true-positive"
	case FalsePositive:
		return "false-positive"
	case FalseNegative:
		return "false-negative"
	default:
		return "true-negative"
	}
}

// Classify thresholds both abundances against t. Comparisons involving NaN
// are false, so NaN values count as not detected.
func Classify(real, calculated, t float64) Classification {
	realPositive := real > t
	calcPositive := calculated > t
	switch {
	case realPositive && calcPositive:
		return TruePositive
	case realPositive:
		return FalseNegative
	case calcPositive:
		return FalsePositive
	default:
		return TrueNegative
	}
}

// Record is one assessed transcript
type Record struct {
	TranscriptID    string
	Length          int
	UniqueLength    int
	TranscriptCount int

	Real          float64
	Calculated    float64
	LogReal       float64
	LogCalculated float64
	// PercentError is (calculated-real)/real*100, NaN when real is zero
	PercentError float64

	TruePositive  bool
	FalsePositive bool
	TrueNegative  bool
	FalseNegative bool
}

// NewRecord builds a classified record from a truth row and the calculated
// abundance for it
func NewRecord(t Truth, calculated, threshold float64) Record {
	r := Record{
		TranscriptID:    t.TranscriptID,
		Length:          t.Length,
		UniqueLength:    t.UniqueLength,
		TranscriptCount: t.TranscriptCount,
		Real:            t.Real,
		Calculated:      calculated,
		LogReal:         math.Log10(t.Real),
		LogCalculated:   math.Log10(calculated),
		PercentError:    math.NaN(),
	}
	if t.Real != 0 {
		r.PercentError = (calculated - t.Real) / t.Real * 100
	}

	switch Classify(t.Real, calculated, threshold) {
	case TruePositive:
		r.TruePositive = true
	case FalsePositive:
		r.FalsePositive = true
	case FalseNegative:
		r.FalseNegative = true
	default:
		r.TrueNegative = true
	}
	return r
}

// Classification returns the single classification flag that is set
func (r Record) Classification() Classification {
	switch {
	case r.TruePositive:
		return TruePositive
	case r.FalsePositive:
		return FalsePositive
	case r.FalseNegative:
		return FalseNegative
	default:
		return TrueNegative
	}
}

// UniqueSequencePercentage is the share of the transcript's sequence not
// found in any other transcript
func (r Record) UniqueSequencePercentage() float64 {
	return 100 * float64(r.UniqueLength) / float64(r.Length)
}

// Table is the in-memory collection of records for one assessment
type Table []Record

// Merge keeps every ground-truth transcript, assigning abundance 0 to any
// the calculated lookup does not know, so false negatives stay visible.
func Merge(truth []Truth, calculated Lookup, threshold float64) Table {
	table := make(Table, 0, len(truth))
	for _, t := range truth {
		calc, ok := calculated(t.TranscriptID)
		if !ok {
			calc = 0
		}
		table = append(table, NewRecord(t, calc, threshold))
	}
	return table
}

// Filter returns the records matching keep
func (t Table) Filter(keep func(Record) bool) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// TruePositives returns the true-positive records
func (t Table) TruePositives() Table {
	return t.Filter(func(r Record) bool { return r.TruePositive })
}

// Counts tallies the four classifications
func (t Table) Counts() (tp, fp, tn, fn int) {
	for _, r := range t {
		switch r.Classification() {
		case TruePositive:
			tp++
		case FalsePositive:
			fp++
		case FalseNegative:
			fn++
		default:
			tn++
		}
	}
	return
}
