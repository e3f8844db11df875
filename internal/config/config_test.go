package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piquant/internal/errors"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PIQUANT_OUTPUT_DIR", "PIQUANT_NUM_FRAGMENTS", "PIQUANT_THREADS",
		"PIQUANT_WORKERS", "PIQUANT_DETECTION_THRESHOLD", "PIQUANT_RESULTS_DSN", "PIQUANT_STATUS_ADDR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputDir, cfg.Paths.OutputDir)
	assert.Equal(t, DefaultNumFragments, cfg.Simulation.NumFragments)
	assert.Equal(t, DefaultThreshold, cfg.Assessment.DetectionThreshold)
	assert.Equal(t, DefaultStatusAddr, cfg.Server.Addr)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnv_InvalidValuesNameTheOption(t *testing.T) {
	t.Setenv("PIQUANT_NUM_FRAGMENTS", "lots")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	assert.Contains(t, err.Error(), "PIQUANT_NUM_FRAGMENTS")
	assert.Contains(t, err.Error(), "lots")

	t.Setenv("PIQUANT_NUM_FRAGMENTS", "0")
	_, err = FromEnv()
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestParseSweepFile(t *testing.T) {
	sf, err := ParseSweepFile([]byte(`
read-length: [50, 100]
paired-end: "false, true"
quant-method:
  - RSEM
quantifier-params:
  polya: "false"
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"50", "100"}, sf.Params["read-length"])
	assert.Equal(t, []string{"false", "true"}, sf.Params["paired-end"])
	assert.Equal(t, []string{"RSEM"}, sf.Params["quant-method"])
	assert.Equal(t, "false", sf.QuantifierParams["polya"])

	merged := sf.Merge(map[string][]string{"read-length": {"75"}, "errors": nil})
	assert.Equal(t, []string{"75"}, merged["read-length"])
	assert.NotContains(t, merged, "errors")
	assert.Equal(t, []string{"50", "100"}, sf.Params["read-length"], "merge copies")
}

func TestParseSweepFile_Invalid(t *testing.T) {
	_, err := ParseSweepFile([]byte("read-length: {a: 1}"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	sf, err := ParseSweepFile(nil)
	require.NoError(t, err)
	assert.Empty(t, sf.Params)
}

func TestParseKeyValues(t *testing.T) {
	kv, err := ParseKeyValues("a=1, b = two")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "two"}, kv)

	_, err = ParseKeyValues("novalue")
	assert.Error(t, err)
}

func TestNewRun(t *testing.T) {
	dir := t.TempDir()
	gtf := filepath.Join(dir, "t.gtf")
	require.NoError(t, os.WriteFile(gtf, nil, 0o644))

	opts := RunOptions{
		OutputDir:        dir,
		TranscriptGTF:    gtf,
		GenomeFastaDir:   dir,
		NumFragments:     1000,
		Threads:          2,
		QuantifierParams: map[string]string{"k": "v"},
		RequireInputs:    true,
	}
	run, err := NewRun(opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "quantifier_scratch"), run.QuantifierDir())
	assert.Equal(t, gtf, run.TranscriptGTF())

	opts.QuantifierParams["k"] = "changed"
	assert.Equal(t, "v", run.QuantifierParams()["k"], "run keeps its own copy")

	bad := opts
	bad.PrepareOnly, bad.RunOnly = true, true
	_, err = NewRun(bad)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	bad = opts
	bad.TranscriptGTF = filepath.Join(dir, "missing.gtf")
	_, err = NewRun(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.gtf")

	bad = opts
	bad.OutputDir = filepath.Join(dir, "nope")
	_, err = NewRun(bad)
	assert.Contains(t, err.Error(), "Output parent directory does not exist")
}
