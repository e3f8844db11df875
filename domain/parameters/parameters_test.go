package parameters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"piquant/domain/core"
	apperrors "piquant/internal/errors"
	"piquant/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMethod struct{ name string }

func (m stubMethod) Name() string                                           { return m.name }
func (m stubMethod) RequiresPairedEnd() bool                                { return false }
func (m stubMethod) PreparatoryCommands(ports.QuantifierParams) []string    { return nil }
func (m stubMethod) QuantificationCommands(ports.QuantifierParams) []string { return nil }
func (m stubMethod) CleanupCommands() []string                              { return nil }
func (m stubMethod) AbundanceFile() string                                  { return "out.txt" }
func (m stubMethod) ReadAbundances(io.Reader) (map[string]float64, error)   { return nil, nil }

type stubResolver map[string]ports.QuantificationMethod

func (r stubResolver) Lookup(name string) (ports.QuantificationMethod, error) {
	for k, m := range r {
		if strings.EqualFold(k, name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("no method %q", name)
}

func newTestCatalog() *Catalog {
	return NewCatalog(stubResolver{
		"Cufflinks": stubMethod{"Cufflinks"},
		"RSEM":      stubMethod{"RSEM"},
		"Salmon":    stubMethod{"Salmon"},
	})
}

func fullRaw() map[string][]string {
	return map[string][]string{
		QuantMethod: {"Cufflinks", "RSEM", "Salmon"},
		PairedEnd:   {"False", "True"},
		Errors:      {"False", "True"},
		Bias:        {"False"},
		ReadLength:  {"50", "100"},
		ReadDepth:   {"10", "30", "100"},
	}
}

func TestExpand_ProducesFullCartesianProduct(t *testing.T) {
	c := newTestCatalog()
	cands, err := c.Validate(fullRaw())
	require.NoError(t, err)

	sets := c.Expand(cands)
	assert.Len(t, sets, 3*2*2*1*2*3)
	assert.Equal(t, cands.Count(), len(sets))

	seen := make(map[string]bool, len(sets))
	for _, s := range sets {
		assert.Equal(t, 6, s.Len(), "every declared parameter has a value")
		name := c.Name(s)
		assert.False(t, seen[name], "duplicate directory token %s", name)
		seen[name] = true
	}
}

func TestExpand_OrderIsDeterministic(t *testing.T) {
	c := newTestCatalog()
	cands, err := c.Validate(fullRaw())
	require.NoError(t, err)

	first := c.Expand(cands)
	second := c.Expand(cands)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, c.Name(first[i]), c.Name(second[i]))
	}

	// The last declared parameter varies fastest.
	assert.Equal(t, 10, first[0].ReadDepth())
	assert.Equal(t, 30, first[1].ReadDepth())
	assert.Equal(t, "Cufflinks", first[0].Method().Name())
}

func TestName_Format(t *testing.T) {
	c := newTestCatalog()
	s := NewSet(map[string]any{
		QuantMethod: stubMethod{"RSEM"},
		PairedEnd:   true,
		Errors:      false,
		Bias:        true,
		ReadLength:  50,
		ReadDepth:   10,
	})

	assert.Equal(t,
		"method-RSEM_ends-pe_errors-noerrors_bias-bias_read-length-50b_read-depth-10x",
		c.Name(s))
	assert.Equal(t,
		"ends-pe_errors-noerrors_bias-bias_read-length-50b_read-depth-10x",
		c.Name(s.Without(QuantMethod)))
	assert.True(t, s.Has(QuantMethod), "Without must not mutate the original")
	assert.Equal(t, "Method=RSEM, Ends=pe, Errors=noerrors, Bias=bias, Read length=50b, Read depth=10x", c.Describe(s))
}

func TestName_InjectiveAcrossNumericBoundaries(t *testing.T) {
	c := newTestCatalog()
	// 1 and 11 etc. must not collide once formatted and joined
	cands, err := c.Validate(map[string][]string{
		PairedEnd:  {"true", "false"},
		Errors:     {"true", "false"},
		Bias:       {"true", "false"},
		ReadLength: {"1", "11", "111"},
		ReadDepth:  {"1", "11", "0"},
	}, QuantMethod)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, s := range c.Expand(cands) {
		n := c.Name(s)
		assert.False(t, names[n], n)
		names[n] = true
		assert.NotContains(t, n, "/")
	}
	assert.Len(t, names, 2*2*2*3*3)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string][]string)
		sentinel error
		contains string
	}{
		{"negative length", func(r map[string][]string) { r[ReadLength] = []string{"50", "-1"} }, core.ErrInvalidParameter, "'-1'"},
		{"non-numeric depth", func(r map[string][]string) { r[ReadDepth] = []string{"ten"} }, core.ErrInvalidParameter, "read-depth"},
		{"bad boolean", func(r map[string][]string) { r[Errors] = []string{"maybe"} }, core.ErrInvalidParameter, "'maybe'"},
		{"unknown method", func(r map[string][]string) { r[QuantMethod] = []string{"Kallisto"} }, core.ErrUnknownMethod, "'Kallisto'"},
		{"missing parameter", func(r map[string][]string) { delete(r, Bias) }, core.ErrMissingParameter, "bias"},
		{"unknown parameter", func(r map[string][]string) { r["polya"] = []string{"True"} }, core.ErrUnknownParameter, "polya"},
		{"duplicate value", func(r map[string][]string) { r[QuantMethod] = []string{"RSEM", "rsem"} }, core.ErrDuplicateValue, "rsem"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			raw := fullRaw()
			tt.mutate(raw)
			cands, err := newTestCatalog().Validate(raw)
			require.Error(t, err)
			assert.Nil(t, cands, "no partial product on failure")
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestValidate_IgnoredParameter(t *testing.T) {
	raw := fullRaw()
	delete(raw, QuantMethod)

	c := newTestCatalog()
	cands, err := c.Validate(raw, QuantMethod)
	require.NoError(t, err)
	_, hasMethod := cands[QuantMethod]
	assert.False(t, hasMethod)

	for _, s := range c.Expand(cands) {
		assert.Nil(t, s.Method())
		assert.False(t, strings.HasPrefix(c.Name(s), "method-"))
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"50", "100"}, SplitList("50, 100"))
	assert.Nil(t, SplitList("  "))
	assert.Equal(t, []string{"True", ""}, SplitList("True,"))
}

func TestExecute_RunsStagesInOrderPerSet(t *testing.T) {
	c := newTestCatalog()
	cands, err := c.Validate(map[string][]string{
		PairedEnd:  {"False"},
		Errors:     {"False"},
		Bias:       {"False"},
		ReadLength: {"50", "75"},
		ReadDepth:  {"10"},
	}, QuantMethod)
	require.NoError(t, err)

	var calls []string
	record := func(tag string) Stage {
		return func(_ context.Context, s Set) error {
			calls = append(calls, fmt.Sprintf("%s:%d", tag, s.ReadLength()))
			return nil
		}
	}

	require.NoError(t, c.ExecuteFor(context.Background(), cands, record("check"), record("prepare")))
	assert.Equal(t, []string{"check:50", "prepare:50", "check:75", "prepare:75"}, calls)
}

func TestExecute_HaltsOnFirstError(t *testing.T) {
	c := newTestCatalog()
	cands, err := c.Validate(map[string][]string{
		PairedEnd:  {"False"},
		Errors:     {"False"},
		Bias:       {"False"},
		ReadLength: {"50", "75", "100"},
		ReadDepth:  {"10"},
	}, QuantMethod)
	require.NoError(t, err)

	var visited []int
	stage := func(_ context.Context, s Set) error {
		visited = append(visited, s.ReadLength())
		if s.ReadLength() == 75 {
			return apperrors.New(apperrors.CodeStatePrecondition, "reads directory should not already exist")
		}
		return nil
	}

	err = c.ExecuteFor(context.Background(), cands, stage)
	require.Error(t, err)
	assert.Equal(t, []int{50, 75}, visited)
	assert.Equal(t, apperrors.CodeStatePrecondition, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "read-length-75b")
}

func TestExecute_StopsOnCancelledContext(t *testing.T) {
	c := newTestCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := c.Execute(ctx, []Set{NewSet(map[string]any{ReadLength: 50})}, func(context.Context, Set) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
