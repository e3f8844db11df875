// Package parameters declares the sweepable experimental parameters and
// expands per-parameter candidate lists into parameter sets.
package parameters

import (
	"fmt"
	"strconv"
	"strings"

	"piquant/domain/core"
	apperrors "piquant/internal/errors"
	"piquant/ports"
)

// Parameter names, in declaration order
const (
	QuantMethod = "quant-method"
	PairedEnd   = "paired-end"
	Errors      = "errors"
	Bias        = "bias"
	ReadLength  = "read-length"
	ReadDepth   = "read-depth"
)

// NameDelimiter separates parameter segments in a set's canonical name
const NameDelimiter = "_"

// MethodResolver resolves a quantification method by name
type MethodResolver interface {
	Lookup(name string) (ports.QuantificationMethod, error)
}

// Parameter is one declared sweep dimension. Parameters are immutable once
// the catalog is built.
type Parameter struct {
	Name      string
	Title     string
	IsNumeric bool

	namer  func(v any) string
	parser func(raw string) (any, error)
}

// ValueName formats a value for display and directory naming
func (p Parameter) ValueName(v any) string {
	if p.namer == nil {
		return fmt.Sprint(v)
	}
	return p.namer(v)
}

// FileLabel is the title as used in directory names
func (p Parameter) FileLabel() string {
	return strings.ReplaceAll(strings.ToLower(p.Title), " ", "-")
}

// Parse converts a raw command-line value into the parameter's domain
func (p Parameter) Parse(raw string) (any, error) {
	return p.parser(strings.TrimSpace(raw))
}

// Catalog is the ordered, process-wide set of declared parameters
type Catalog struct {
	params []Parameter
	index  map[string]int
}

// NewCatalog declares the sweep parameters. Method names resolve through
// methods.
func NewCatalog(methods MethodResolver) *Catalog {
	params := []Parameter{
		{
			Name:  QuantMethod,
			Title: "Method",
			namer: func(v any) string { return v.(ports.QuantificationMethod).Name() },
			parser: func(raw string) (any, error) {
				m, err := methods.Lookup(raw)
				if err != nil {
					return nil, invalid(core.ErrUnknownMethod, "Unknown quantification method for %s: '%s'", QuantMethod, raw)
				}
				return m, nil
			},
		},
		{
			Name:   PairedEnd,
			Title:  "Ends",
			namer:  boolNamer("pe", "se"),
			parser: boolParser(PairedEnd),
		},
		{
			Name:   Errors,
			Title:  "Errors",
			namer:  boolNamer("errors", "noerrors"),
			parser: boolParser(Errors),
		},
		{
			Name:   Bias,
			Title:  "Bias",
			namer:  boolNamer("bias", "nobias"),
			parser: boolParser(Bias),
		},
		{
			Name:      ReadLength,
			Title:     "Read length",
			IsNumeric: true,
			namer:     func(v any) string { return fmt.Sprintf("%db", v.(int)) },
			parser:    nonNegativeIntParser(ReadLength),
		},
		{
			Name:      ReadDepth,
			Title:     "Read depth",
			IsNumeric: true,
			namer:     func(v any) string { return fmt.Sprintf("%dx", v.(int)) },
			parser:    nonNegativeIntParser(ReadDepth),
		},
	}

	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p.Name] = i
	}
	return &Catalog{params: params, index: index}
}

// Parameters returns the declared parameters in declaration order
func (c *Catalog) Parameters() []Parameter {
	out := make([]Parameter, len(c.params))
	copy(out, c.params)
	return out
}

// Parameter returns a declared parameter by name
func (c *Catalog) Parameter(name string) (Parameter, bool) {
	i, ok := c.index[name]
	if !ok {
		return Parameter{}, false
	}
	return c.params[i], true
}

// Name derives the canonical token for a set: one "<label>-<value>" segment
// per parameter present in the set, in declaration order. The token is used
// verbatim as a directory name.
func (c *Catalog) Name(s Set) string {
	segments := make([]string, 0, len(c.params))
	for _, p := range c.params {
		v, ok := s.values[p.Name]
		if !ok {
			continue
		}
		segments = append(segments, p.FileLabel()+"-"+p.ValueName(v))
	}
	return strings.Join(segments, NameDelimiter)
}

// Describe renders a set for log messages, e.g. "Method=RSEM, Ends=pe"
func (c *Catalog) Describe(s Set) string {
	parts := make([]string, 0, len(c.params))
	for _, p := range c.params {
		if v, ok := s.values[p.Name]; ok {
			parts = append(parts, p.Title+"="+p.ValueName(v))
		}
	}
	return strings.Join(parts, ", ")
}

func boolNamer(yes, no string) func(any) string {
	return func(v any) string {
		if v.(bool) {
			return yes
		}
		return no
	}
}

func boolParser(name string) func(string) (any, error) {
	return func(raw string) (any, error) {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalid(core.ErrInvalidParameter, "Values for %s must be True or False: '%s'", name, raw)
		}
		return b, nil
	}
}

func nonNegativeIntParser(name string) func(string) (any, error) {
	return func(raw string) (any, error) {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, invalid(core.ErrInvalidParameter, "Values for %s must be non-negative integers: '%s'", name, raw)
		}
		return n, nil
	}
}

func invalid(cause error, format string, args ...interface{}) error {
	return &apperrors.AppError{
		Code:    apperrors.CodeConfigInvalid,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}
