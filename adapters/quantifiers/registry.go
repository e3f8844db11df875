// Package quantifiers holds the quantification method registry and the
// command templates and output readers of every supported tool.
package quantifiers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"piquant/domain/core"
	"piquant/ports"
)

// Method names end up verbatim in run directory names.
var safeName = regexp.MustCompile(`^[A-Za-z0-9.+-]+$`)

// Registry maps method names to their capabilities. Lookups are
// case-insensitive; the method's own Name() is canonical.
type Registry struct {
	methods map[string]ports.QuantificationMethod
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]ports.QuantificationMethod)}
}

// BuildRegistry returns a registry holding every supported method. Call it
// once at start-up.
func BuildRegistry() *Registry {
	r := NewRegistry()
	for _, m := range []ports.QuantificationMethod{
		NewCufflinks(),
		NewRSEM(),
		NewExpress(),
		NewSailfish(),
		NewSalmon(),
	} {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a method. Names must be filesystem-safe and unique
// ignoring case.
func (r *Registry) Register(m ports.QuantificationMethod) error {
	name := m.Name()
	if !safeName.MatchString(name) {
		return fmt.Errorf("%w: %q", core.ErrUnsafeMethodName, name)
	}
	key := strings.ToLower(name)
	if _, exists := r.methods[key]; exists {
		return fmt.Errorf("quantification method %q %w", name, core.ErrDuplicateRegister)
	}
	r.methods[key] = m
	return nil
}

// Lookup resolves a method by name
func (r *Registry) Lookup(name string) (ports.QuantificationMethod, error) {
	m, ok := r.methods[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", core.ErrUnknownMethod, name, strings.Join(r.Names(), ", "))
	}
	return m, nil
}

// Names returns the canonical method names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.methods))
	for _, m := range r.methods {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

// All returns every registered method sorted by name
func (r *Registry) All() []ports.QuantificationMethod {
	out := make([]ports.QuantificationMethod, 0, len(r.methods))
	for _, name := range r.Names() {
		out = append(out, r.methods[strings.ToLower(name)])
	}
	return out
}
