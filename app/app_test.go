package app

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"piquant/adapters/quantifiers"
	"piquant/adapters/stats/engine"
	"piquant/domain/abundance"
	"piquant/domain/core"
	"piquant/domain/parameters"
	"piquant/domain/stats"
	"piquant/internal"
	"piquant/internal/config"
	"piquant/internal/errors"
	"piquant/internal/flux"
	"piquant/internal/runstate"
	"piquant/internal/tables"
	"piquant/ports"
)

type launch struct {
	dir, script string
}

type recordingLauncher struct {
	mu       sync.Mutex
	launches []launch
}

func (l *recordingLauncher) Launch(_ context.Context, dir, script string, _ ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches = append(l.launches, launch{dir: dir, script: script})
	return nil
}

type fixture struct {
	sweep    *Sweep
	launcher *recordingLauncher
	logs     *observer.ObservedLogs
}

type memoryRepository struct {
	mu   sync.Mutex
	runs []string
}

func (r *memoryRepository) SaveAssessment(_ context.Context, _ core.SweepID, a *stats.Assessment) (core.AssessmentID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, a.RunName)
	return core.NewAssessmentID(), nil
}

func (r *memoryRepository) ListResults(context.Context, string) ([]ports.StoredResult, error) {
	return nil, nil
}

func (r *memoryRepository) Close() error { return nil }

func newFixture(t *testing.T, opts config.RunOptions, registry *quantifiers.Registry) *fixture {
	t.Helper()
	opts.OutputDir = t.TempDir()
	if opts.NumFragments == 0 {
		opts.NumFragments = 1000
	}
	if opts.Threads == 0 {
		opts.Threads = 2
	}
	if opts.TranscriptGTF == "" {
		opts.TranscriptGTF = "/ref/transcripts.gtf"
		opts.GenomeFastaDir = "/ref/genome"
	}
	run, err := config.NewRun(opts)
	require.NoError(t, err)

	if registry == nil {
		registry = quantifiers.BuildRegistry()
	}
	obs, logs := observer.New(zapcore.DebugLevel)
	logger := internal.NewLoggerFromZap(zap.New(obs), internal.LogLevelDebug)
	return &fixture{
		sweep:    NewSweep(run, parameters.NewCatalog(registry), logger),
		launcher: &recordingLauncher{},
		logs:     logs,
	}
}

func (f *fixture) expand(t *testing.T, raw map[string][]string, ignore ...string) []parameters.Set {
	t.Helper()
	cands, err := f.sweep.Catalog.Validate(raw, ignore...)
	require.NoError(t, err)
	return f.sweep.Catalog.Expand(cands)
}

func readsRaw() map[string][]string {
	return map[string][]string{
		parameters.PairedEnd:  {"false", "true"},
		parameters.Errors:     {"false"},
		parameters.Bias:       {"false", "true"},
		parameters.ReadLength: {"50"},
		parameters.ReadDepth:  {"10"},
	}
}

func quantRaw(methods ...string) map[string][]string {
	raw := readsRaw()
	raw[parameters.QuantMethod] = methods
	return raw
}

func TestReadsService_PrepareWritesSimulationFiles(t *testing.T) {
	f := newFixture(t, config.RunOptions{}, nil)
	sets := f.expand(t, readsRaw(), parameters.QuantMethod)
	require.Len(t, sets, 4)

	svc := NewReadsService(f.sweep, f.launcher)
	require.NoError(t, svc.Prepare(context.Background(), sets))

	for _, set := range sets {
		dir := f.sweep.Tracker.ReadsDir(set)
		params, err := os.ReadFile(filepath.Join(dir, flux.ParamsFile))
		require.NoError(t, err)
		assert.Contains(t, string(params), "REF_FILE_NAME /ref/transcripts.gtf")
		assert.Contains(t, string(params), "NB_MOLECULES 1000")

		info, err := os.Stat(filepath.Join(dir, flux.SimulationScript))
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&0o100, "script is executable")
		assert.Equal(t, runstate.ReadsPrepared, f.sweep.Tracker.Observe(set))
	}
	assert.Empty(t, f.launcher.launches)
}

func TestReadsService_SecondPrepareFailsForEverySet(t *testing.T) {
	f := newFixture(t, config.RunOptions{}, nil)
	sets := f.expand(t, readsRaw(), parameters.QuantMethod)
	svc := NewReadsService(f.sweep, f.launcher)
	require.NoError(t, svc.Prepare(context.Background(), sets))

	for _, set := range sets {
		err := svc.Prepare(context.Background(), []parameters.Set{set})
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, core.ErrDirectoryExists))
		assert.Equal(t, errors.CodeStatePrecondition, errors.GetCode(err))
		assert.Contains(t, err.Error(), f.sweep.Tracker.ReadsDir(set))
	}
}

func TestReadsService_CreateRequiresPreparedDirectories(t *testing.T) {
	f := newFixture(t, config.RunOptions{}, nil)
	sets := f.expand(t, readsRaw(), parameters.QuantMethod)
	svc := NewReadsService(f.sweep, f.launcher)

	err := svc.Create(context.Background(), sets)
	assert.True(t, stderrors.Is(err, core.ErrDirectoryMissing))
	assert.Empty(t, f.launcher.launches)

	require.NoError(t, svc.Prepare(context.Background(), sets))
	require.NoError(t, svc.Create(context.Background(), sets))
	require.Len(t, f.launcher.launches, len(sets))
	for i, set := range sets {
		assert.Equal(t, launch{dir: f.sweep.Tracker.ReadsDir(set), script: flux.SimulationScript}, f.launcher.launches[i])
	}
}

func TestReadsService_CheckIsRepeatable(t *testing.T) {
	f := newFixture(t, config.RunOptions{}, nil)
	sets := f.expand(t, readsRaw(), parameters.QuantMethod)
	svc := NewReadsService(f.sweep, f.launcher)
	require.NoError(t, svc.Prepare(context.Background(), sets))

	// finish only the first simulation
	done := filepath.Join(f.sweep.Tracker.ReadsDir(sets[0]), flux.CompletionFile(false, sets[0].PairedEnd()))
	require.NoError(t, os.WriteFile(done, []byte(">r\nACGT\n"), 0o644))

	first, err := svc.Check(context.Background(), sets)
	require.NoError(t, err)
	second, err := svc.Check(context.Background(), sets)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 4)
	assert.True(t, first[0].Complete)
	for _, c := range first[1:] {
		assert.False(t, c.Complete)
	}

	warnings := f.logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 6)
	assert.Equal(t, "Run "+f.sweep.Tracker.ReadsName(sets[1])+" did not complete.", warnings[0].Message)
}

type pairedOnly struct {
	*quantifiers.Salmon
}

func (pairedOnly) Name() string            { return "PairedOnly" }
func (pairedOnly) RequiresPairedEnd() bool { return true }

func TestQuantificationService_ValidateRejectsSingleEndForPairedOnlyMethod(t *testing.T) {
	registry := quantifiers.BuildRegistry()
	require.NoError(t, registry.Register(pairedOnly{quantifiers.NewSalmon()}))
	f := newFixture(t, config.RunOptions{}, registry)
	svc := NewQuantificationService(f.sweep, f.launcher, "piquant")

	err := svc.Validate(f.expand(t, quantRaw("PairedOnly")))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, core.ErrUnsupportedReads))
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	raw := quantRaw("PairedOnly", "Salmon")
	raw[parameters.PairedEnd] = []string{"true"}
	assert.NoError(t, svc.Validate(f.expand(t, raw)))

	// nothing is written before validation passes
	err = svc.Quantify(context.Background(), f.expand(t, quantRaw("PairedOnly")))
	require.Error(t, err)
	entries, err := os.ReadDir(f.sweep.Run.OutputDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func prepareReads(t *testing.T, f *fixture, sets []parameters.Set) {
	t.Helper()
	for _, set := range sets {
		dir := f.sweep.Tracker.ReadsDir(set)
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		require.NoError(t, os.Mkdir(dir, 0o755))
	}
}

func uniqueLengthsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unique.csv")
	require.NoError(t, os.WriteFile(path, []byte("transcript,unique-length\nT1,750\nT2,800\nT3,0\n"), 0o644))
	return path
}

func TestQuantificationService_PrepareOnly(t *testing.T) {
	unique := uniqueLengthsFile(t)
	f := newFixture(t, config.RunOptions{
		PrepareOnly:      true,
		QuantifierParams: map[string]string{UniqueLengthsParam: unique},
	}, nil)
	sets := f.expand(t, quantRaw("Salmon", "RSEM"))
	svc := NewQuantificationService(f.sweep, f.launcher, "/usr/local/bin/piquant")

	err := svc.Quantify(context.Background(), sets)
	assert.True(t, stderrors.Is(err, core.ErrDirectoryMissing), "reads must exist first")
	assert.NoDirExists(t, f.sweep.Run.QuantifierDir(), "nothing is written when the first set fails its checks")

	prepareReads(t, f, sets)
	require.NoError(t, svc.Quantify(context.Background(), sets))
	assert.Empty(t, f.launcher.launches)

	set := sets[0]
	content, err := os.ReadFile(filepath.Join(f.sweep.Tracker.RunDir(set), QuantificationScript))
	require.NoError(t, err)
	text := string(content)
	assert.True(t, strings.HasPrefix(text, "#!/bin/bash\n"))
	assert.Contains(t, text, "salmon quant")
	assert.Contains(t, text, "/usr/local/bin/piquant count-transcripts /ref/transcripts.gtf > transcript_counts.csv.tmp && "+
		"mv transcript_counts.csv.tmp transcript_counts.csv")
	assert.Contains(t, text, "/usr/local/bin/piquant assemble --method Salmon --run-dir . --pro-file "+
		filepath.Join(f.sweep.Tracker.ReadsDir(set), flux.ProFile)+
		" --counts transcript_counts.csv --unique-lengths "+unique)
	assert.Equal(t, runstate.QuantificationRun, f.sweep.Tracker.Observe(set))

	assert.DirExists(t, f.sweep.Run.QuantifierDir())

	err = svc.Quantify(context.Background(), sets)
	assert.True(t, stderrors.Is(err, core.ErrDirectoryExists), "second prepare fails")
}

func TestQuantificationService_ScriptsWriteOnlyInsideRunDirectory(t *testing.T) {
	f := newFixture(t, config.RunOptions{
		PrepareOnly:      true,
		QuantifierParams: map[string]string{UniqueLengthsParam: uniqueLengthsFile(t)},
	}, nil)
	sets := f.expand(t, quantRaw("Salmon", "RSEM", "Express", "Sailfish"))
	svc := NewQuantificationService(f.sweep, f.launcher, "piquant")

	for _, set := range sets {
		text := svc.Script(set).String()
		assert.NotContains(t, text, filepath.Join(f.sweep.Run.QuantifierDir(), TranscriptCountsFile))

		fields := strings.Fields(text)
		for i, field := range fields {
			if field != ">" || i+1 == len(fields) {
				continue
			}
			target := fields[i+1]
			assert.False(t, filepath.IsAbs(target), "%s redirects to %s", f.sweep.Tracker.RunName(set), target)
		}
	}
}

func TestQuantificationService_RequiresUniqueLengths(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
	}{
		{"not given", nil},
		{"missing file", map[string]string{UniqueLengthsParam: "/no/such/unique.csv"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.RunOptions{PrepareOnly: true, QuantifierParams: tt.params}, nil)
			sets := f.expand(t, quantRaw("Salmon"))
			prepareReads(t, f, sets)

			err := NewQuantificationService(f.sweep, f.launcher, "piquant").Quantify(context.Background(), sets)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
			assert.Contains(t, err.Error(), UniqueLengthsParam)
			assert.NoDirExists(t, f.sweep.Tracker.RunDir(sets[0]))
		})
	}
}

func TestQuantificationService_RunOnlyLaunchesExistingScripts(t *testing.T) {
	prep := newFixture(t, config.RunOptions{
		PrepareOnly:      true,
		QuantifierParams: map[string]string{UniqueLengthsParam: uniqueLengthsFile(t)},
	}, nil)
	sets := prep.expand(t, quantRaw("Salmon"))
	prepareReads(t, prep, sets)
	require.NoError(t, NewQuantificationService(prep.sweep, prep.launcher, "piquant").Quantify(context.Background(), sets))

	run, err := config.NewRun(config.RunOptions{
		OutputDir:    prep.sweep.Run.OutputDir(),
		NumFragments: 1000,
		Threads:      2,
		RunOnly:      true,
	})
	require.NoError(t, err)
	sweep := NewSweep(run, prep.sweep.Catalog, internal.NewNopLogger())
	launcher := &recordingLauncher{}
	require.NoError(t, NewQuantificationService(sweep, launcher, "piquant").Quantify(context.Background(), sets))

	require.Len(t, launcher.launches, len(sets))
	assert.Equal(t, QuantificationScript, launcher.launches[0].script)
	assert.Equal(t, sweep.Tracker.RunDir(sets[0]), launcher.launches[0].dir)
}

func TestQuantificationService_Params(t *testing.T) {
	f := newFixture(t, config.RunOptions{}, nil)
	raw := quantRaw("Salmon")
	raw[parameters.Errors] = []string{"true"}
	sets := f.expand(t, raw)
	svc := NewQuantificationService(f.sweep, f.launcher, "piquant")

	se := svc.Params(sets[0])
	assert.False(t, se.PairedEnd())
	assert.True(t, se.FastqReads)
	assert.Equal(t, filepath.Join(f.sweep.Tracker.ReadsDir(sets[0]), "reads.fastq"), se.SimulatedReads)

	pe := svc.Params(sets[2])
	assert.True(t, pe.PairedEnd())
	assert.Equal(t, filepath.Join(f.sweep.Tracker.ReadsDir(sets[2]), "reads.l.fastq"), pe.LeftReads)
	assert.Equal(t, filepath.Join(f.sweep.Tracker.ReadsDir(sets[2]), "reads.r.fastq"), pe.RightReads)
	assert.Equal(t, 2, pe.Threads)
}

const pro = "chr1:1-2000W\tT1\tCDS\t1500\t0.000002\t20\t0\t0\t0\t0\n" +
	"chr1:1-2000W\tT2\tCDS\t800\t0\t0\t0\t0\t0\t0\n" +
	"chr2:5-900C\tT3\tNC\t300\t0.000001\t1\t0\t0\t0\t0\n"

func TestAssemblyService_Assemble(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	proFile := write("flux_simulator.pro", pro)
	countsFile := write("counts.csv", "transcript,gene,transcript_count\nT1,G1,2\nT2,G1,2\nT3,G2,1\n")
	uniqueFile := write("unique.csv", "transcript,unique-length\nT1,750\nT2,800\nT3,0\n")
	svc := NewAssemblyService(internal.NewNopLogger())

	req := AssemblyRequest{Method: quantifiers.NewSalmon(), RunDir: dir, ProFile: proFile,
		CountsFile: countsFile, UniqueLengthsFile: uniqueFile}
	_, err := svc.Assemble(req)
	assert.Equal(t, errors.CodeIncomplete, errors.GetCode(err), "quantifier output missing")

	write("quant_filtered.csv", "Name\tLength\tTPM\nT1\t1500\t1.5\nT3\t300\t0.05\n")
	path, err := svc.Assemble(req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, tables.TPMFile), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	truth, calc, err := tables.ReadTPMs(f)
	require.NoError(t, err)
	require.Len(t, truth, 3)
	assert.Equal(t, 2, truth[0].TranscriptCount)
	assert.Equal(t, 750, truth[0].UniqueLength)
	assert.InDelta(t, 2.0, truth[0].Real, 1e-9)
	assert.Equal(t, 1.5, calc["T1"])
	assert.Equal(t, 0.0, calc["T2"])
}

func TestAssemblyService_RejectsIncompleteInputs(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	write("quant_filtered.csv", "Name\tLength\tTPM\nT1\t1500\t1.5\n")
	proFile := write("flux_simulator.pro", pro)
	counts := write("counts.csv", "transcript,gene,transcript_count\nT1,G1,2\nT2,G1,2\nT3,G2,1\n")
	headerOnly := write("empty_counts.csv", "transcript,gene,transcript_count\n")
	unique := write("unique.csv", "transcript,unique-length\nT1,750\nT2,800\nT3,0\n")
	svc := NewAssemblyService(internal.NewNopLogger())

	tests := []struct {
		name   string
		req    AssemblyRequest
		code   string
		target error
	}{
		{"header-only counts", AssemblyRequest{CountsFile: headerOnly, UniqueLengthsFile: unique},
			errors.CodeInvalidInput, core.ErrMissingTranscript},
		{"no unique lengths", AssemblyRequest{CountsFile: counts},
			errors.CodeConfigInvalid, nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.Method, req.RunDir, req.ProFile = quantifiers.NewSalmon(), dir, proFile
			_, err := svc.Assemble(req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.NoFileExists(t, filepath.Join(dir, tables.TPMFile))
		})
	}
}

func TestAssemblyService_CountTranscripts(t *testing.T) {
	gtf := filepath.Join(t.TempDir(), "t.gtf")
	require.NoError(t, os.WriteFile(gtf, []byte(
		"chr1\tsrc\texon\t1\t2\t.\t+\t.\tgene_id \"G1\"; transcript_id \"T1\";\n"+
			"chr1\tsrc\texon\t1\t2\t.\t+\t.\tgene_id \"G1\"; transcript_id \"T2\";\n"), 0o644))

	var buf strings.Builder
	require.NoError(t, NewAssemblyService(internal.NewNopLogger()).CountTranscripts(gtf, &buf))
	assert.Equal(t, "transcript,gene,transcript_count\nT1,G1,2\nT2,G1,2\n", buf.String())
}

func writeTPMs(t *testing.T, dir string, calc map[string]float64) {
	t.Helper()
	require.NoError(t, os.Mkdir(dir, 0o755))
	f, err := os.Create(filepath.Join(dir, tables.TPMFile))
	require.NoError(t, err)
	defer f.Close()
	truth := []abundance.Truth{
		{TranscriptID: "T1", Length: 500, UniqueLength: 500, TranscriptCount: 1, Real: 10},
		{TranscriptID: "T2", Length: 2000, UniqueLength: 1000, TranscriptCount: 2, Real: 100},
		{TranscriptID: "T3", Length: 4000, UniqueLength: 100, TranscriptCount: 2, Real: 0},
	}
	require.NoError(t, tables.WriteTPMs(f, truth, calc))
}

func TestAssessmentService_AssessSweep(t *testing.T) {
	f := newFixture(t, config.RunOptions{}, nil)
	raw := quantRaw("Salmon", "RSEM")
	raw[parameters.PairedEnd] = []string{"false"}
	raw[parameters.Bias] = []string{"false"}
	sets := f.expand(t, raw)
	require.Len(t, sets, 2)

	writeTPMs(t, f.sweep.Tracker.RunDir(sets[0]), map[string]float64{"T1": 12, "T2": 90, "T3": 5})
	require.NoError(t, os.Mkdir(f.sweep.Tracker.RunDir(sets[1]), 0o755))

	repo := &memoryRepository{}
	svc := NewAssessmentService(engine.New(), repo, abundance.DefaultDetectionThreshold, 4, f.sweep.Logger)
	summary, err := svc.AssessSweep(context.Background(), f.sweep, sets)
	require.NoError(t, err)

	assert.Equal(t, []string{"Method", "Ends", "Errors", "Bias", "Read length", "Read depth"}, summary.Parameters)
	require.Len(t, summary.Rows, 1)
	row := summary.Rows[0]
	assert.Equal(t, []string{"Salmon", "se", "noerrors", "nobias", "50b", "10x"}, row.Parameters)
	assert.Equal(t, 3.0, row.Assessment.Value("num-tpms"))
	assert.Equal(t, 2.0, row.Assessment.Value("tp-num-tpms"))
	assert.Equal(t, 0.0, row.Assessment.Value("specificity"))

	assert.Equal(t, []string{f.sweep.Tracker.RunName(sets[0])}, repo.runs)
	warnings := f.logs.FilterMessage("Run " + f.sweep.Tracker.RunName(sets[1]) + " did not complete.").All()
	assert.Len(t, warnings, 1)

	records := summary.Records()
	assert.Equal(t, "3", records[1][len(summary.Parameters)])
}

func TestAssessmentService_AnalyseWritesReports(t *testing.T) {
	dir := t.TempDir()
	writeTPMs(t, filepath.Join(dir, "run"), map[string]float64{"T1": 12})
	svc := NewAssessmentService(engine.New(), nil, abundance.DefaultDetectionThreshold, 1, internal.NewNopLogger())

	prefix := filepath.Join(dir, "out")
	a, written, err := svc.Analyse(context.Background(), core.NewSweepID(), "run", filepath.Join(dir, "run", tables.TPMFile), prefix)
	require.NoError(t, err)
	assert.Equal(t, "run", a.RunName)
	assert.Contains(t, written, prefix+"_overall.csv")
	assert.Contains(t, written, prefix+"_by_gene_transcript_number.csv")
	assert.Contains(t, written, prefix+".json")

	_, _, err = svc.Analyse(context.Background(), core.NewSweepID(), "missing", filepath.Join(dir, "missing.csv"), prefix)
	assert.Equal(t, errors.CodeIncomplete, errors.GetCode(err))
}
