package parameters

import "piquant/ports"

// Set is one concrete assignment of parameter values. Sets are never
// mutated; Without returns a copy.
type Set struct {
	values map[string]any
}

// NewSet builds a set from already-validated values. Intended for tests and
// for callers that construct a single combination by hand.
func NewSet(values map[string]any) Set {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Set{values: cp}
}

// Has reports whether the set assigns the named parameter
func (s Set) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Value returns the raw value of a parameter
func (s Set) Value(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Len is the number of parameters assigned
func (s Set) Len() int {
	return len(s.values)
}

// Without returns a copy of the set with the named parameters removed
func (s Set) Without(names ...string) Set {
	cp := make(map[string]any, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	for _, n := range names {
		delete(cp, n)
	}
	return Set{values: cp}
}

// Method returns the quantification method, or nil when the set has none
func (s Set) Method() ports.QuantificationMethod {
	m, _ := s.values[QuantMethod].(ports.QuantificationMethod)
	return m
}

func (s Set) PairedEnd() bool { return s.boolValue(PairedEnd) }
func (s Set) Errors() bool    { return s.boolValue(Errors) }
func (s Set) Bias() bool      { return s.boolValue(Bias) }
func (s Set) ReadLength() int { return s.intValue(ReadLength) }
func (s Set) ReadDepth() int  { return s.intValue(ReadDepth) }

func (s Set) boolValue(name string) bool {
	b, _ := s.values[name].(bool)
	return b
}

func (s Set) intValue(name string) int {
	n, _ := s.values[name].(int)
	return n
}
