package parameters

import (
	"sort"
	"strings"

	"piquant/domain/core"
)

// Candidates maps parameter name to its ordered, validated candidate values
type Candidates map[string][]any

// Count is the number of parameter sets the candidates expand to
func (c Candidates) Count() int {
	if len(c) == 0 {
		return 0
	}
	n := 1
	for _, vs := range c {
		n *= len(vs)
	}
	return n
}

// SplitList splits a comma-separated command-line value, trimming blanks
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// Validate parses raw candidate lists for every declared parameter not named
// in ignore. Either every value is valid and the full Candidates are
// returned, or the first offending parameter and raw value are reported and
// nothing is returned.
func (c *Catalog) Validate(raw map[string][]string, ignore ...string) (Candidates, error) {
	ignored := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignored[name] = true
	}

	unknown := make([]string, 0)
	for name := range raw {
		if _, ok := c.index[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, invalid(core.ErrUnknownParameter, "Unknown parameter: '%s'", unknown[0])
	}

	cands := make(Candidates, len(c.params))
	for _, p := range c.params {
		if ignored[p.Name] {
			continue
		}
		values := raw[p.Name]
		if len(values) == 0 {
			return nil, invalid(core.ErrMissingParameter, "Values must be specified for %s: '%s'", p.Name, "")
		}

		parsed := make([]any, 0, len(values))
		seen := make(map[string]bool, len(values))
		for _, rv := range values {
			v, err := p.Parse(rv)
			if err != nil {
				return nil, err
			}
			label := p.ValueName(v)
			if seen[label] {
				return nil, invalid(core.ErrDuplicateValue, "Duplicate value for %s: '%s'", p.Name, rv)
			}
			seen[label] = true
			parsed = append(parsed, v)
		}
		cands[p.Name] = parsed
	}
	return cands, nil
}

// Expand produces the Cartesian product of the candidates. Parameters are
// taken in declaration order with the last one varying fastest, so the same
// input always yields the same sequence of sets.
func (c *Catalog) Expand(cands Candidates) []Set {
	order := make([]Parameter, 0, len(c.params))
	for _, p := range c.params {
		if _, ok := cands[p.Name]; ok {
			order = append(order, p)
		}
	}
	if len(order) == 0 {
		return nil
	}

	sets := make([]Set, 0, cands.Count())
	current := make(map[string]any, len(order))

	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(order) {
			sets = append(sets, NewSet(current))
			return
		}
		p := order[depth]
		for _, v := range cands[p.Name] {
			current[p.Name] = v
			walk(depth + 1)
		}
		delete(current, p.Name)
	}
	walk(0)

	return sets
}
