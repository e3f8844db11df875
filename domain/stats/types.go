package stats

import (
	"encoding/json"
	"math"
	"strconv"
)

// Values maps statistic names to values. Undefined values are NaN and
// encode as JSON null.
type Values map[string]float64

func (v Values) MarshalJSON() ([]byte, error) {
	out := make(map[string]*float64, len(v))
	for name, value := range v {
		value := value
		if math.IsNaN(value) {
			out[name] = nil
			continue
		}
		out[name] = &value
	}
	return json.Marshal(out)
}

// Assessment is the scored result of one quantification run: every
// registered statistic computed over the whole table and again within each
// bin of every registered stratifier.
type Assessment struct {
	RunName    string   `json:"run_name"`
	Statistics []string `json:"statistics"`
	// Overall values, keyed by statistic name
	Overall Values           `json:"overall"`
	Strata  []Stratification `json:"strata"`
}

// Stratification holds per-bin results for one stratifier, bins ascending
type Stratification struct {
	Stratifier string `json:"stratifier"`
	Bins       []Bin  `json:"bins"`
}

// Bin is one stratum of a stratification
type Bin struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Values Values `json:"values"`
}

// Value returns the overall value of a statistic, NaN when unknown
func (a *Assessment) Value(statistic string) float64 {
	v, ok := a.Overall[statistic]
	if !ok {
		return math.NaN()
	}
	return v
}

// Stratification returns the named stratification
func (a *Assessment) Stratification(name string) (Stratification, bool) {
	for _, s := range a.Strata {
		if s.Stratifier == name {
			return s, true
		}
	}
	return Stratification{}, false
}

// Bin returns the bin with the given index
func (s Stratification) Bin(index int) (Bin, bool) {
	for _, b := range s.Bins {
		if b.Index == index {
			return b, true
		}
	}
	return Bin{}, false
}

// Value returns a statistic within this bin, NaN when unknown
func (b Bin) Value(statistic string) float64 {
	v, ok := b.Values[statistic]
	if !ok {
		return math.NaN()
	}
	return v
}

// FormatValue renders a statistic for tabular output. Undefined values are
// written as NaN rather than coerced to a number.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
