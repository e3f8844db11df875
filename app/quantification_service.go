package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"piquant/domain/core"
	"piquant/domain/parameters"
	"piquant/internal/errors"
	"piquant/internal/flux"
	"piquant/internal/runstate"
	"piquant/internal/script"
	"piquant/internal/tables"
	"piquant/ports"
)

const (
	QuantificationScript = "run_quantification.sh"
	// TranscriptCountsFile is written inside each run directory
	TranscriptCountsFile = "transcript_counts.csv"
	// UniqueLengthsParam names the quantifier parameter holding the
	// transcript,unique-length CSV. It is required to prepare runs.
	UniqueLengthsParam = "unique-lengths"
)

// QuantificationService writes and launches the quantification script of
// every run directory
type QuantificationService struct {
	sweep    *Sweep
	launcher ports.Launcher
	// program is the piquant executable invoked by the generated scripts
	program string
}

func NewQuantificationService(sweep *Sweep, launcher ports.Launcher, program string) *QuantificationService {
	return &QuantificationService{sweep: sweep, launcher: launcher, program: program}
}

// Validate rejects paired-end-only methods combined with single-end reads.
// It runs over the whole sweep before anything is written.
func (s *QuantificationService) Validate(sets []parameters.Set) error {
	for _, set := range sets {
		m := set.Method()
		if m == nil {
			return errors.InternalError("parameter set has no quantification method")
		}
		if m.RequiresPairedEnd() && !set.PairedEnd() {
			return errors.WrapCode(core.ErrUnsupportedReads, errors.CodeConfigInvalid,
				"Quantification method %s does not support single end reads", m.Name())
		}
	}
	return nil
}

// Quantify prepares each run directory and launches its script. With
// prepare-only nothing is launched; with run-only existing scripts are
// launched without being rewritten.
func (s *QuantificationService) Quantify(ctx context.Context, sets []parameters.Set) error {
	if err := s.Validate(sets); err != nil {
		return err
	}
	run := s.sweep.Run
	if !run.RunOnly() {
		if _, err := s.uniqueLengthsFile(); err != nil {
			return err
		}
	}

	stages := []parameters.Stage{
		func(_ context.Context, set parameters.Set) error {
			return s.sweep.Tracker.RequireReadsDirectory(set)
		},
		func(_ context.Context, set parameters.Set) error {
			return s.sweep.Tracker.CheckRunDirectory(set, run.RunOnly())
		},
	}
	if !run.RunOnly() {
		stages = append(stages, s.prepare)
	}
	if !run.PrepareOnly() {
		stages = append(stages, s.launch)
	}
	return s.sweep.Catalog.Execute(ctx, sets, stages...)
}

// Check reports which runs have assembled their data
func (s *QuantificationService) Check(ctx context.Context, sets []parameters.Set) ([]runstate.Completion, error) {
	var completions []runstate.Completion
	err := s.sweep.Catalog.Execute(ctx, sets,
		func(_ context.Context, set parameters.Set) error {
			return s.sweep.Tracker.CheckRunDirectory(set, true)
		},
		func(_ context.Context, set parameters.Set) error {
			c := s.sweep.Tracker.CheckQuantificationCompletion(set)
			s.sweep.reportCompletion(c)
			completions = append(completions, c)
			return nil
		})
	return completions, err
}

// Params locates the reads and shared files a method needs for one set
func (s *QuantificationService) Params(set parameters.Set) ports.QuantifierParams {
	run := s.sweep.Run
	readsDir := s.sweep.Tracker.ReadsDir(set)
	p := ports.QuantifierParams{
		TranscriptGTF:  run.TranscriptGTF(),
		GenomeFastaDir: run.GenomeFastaDir(),
		QuantifierDir:  run.QuantifierDir(),
		FastqReads:     set.Errors(),
		Threads:        run.Threads(),
		Extra:          run.QuantifierParams(),
	}
	if set.PairedEnd() {
		p.LeftReads = filepath.Join(readsDir, flux.ReadsFile(set.Errors(), "l"))
		p.RightReads = filepath.Join(readsDir, flux.ReadsFile(set.Errors(), "r"))
	} else {
		p.SimulatedReads = filepath.Join(readsDir, flux.ReadsFile(set.Errors(), ""))
	}
	return p
}

// uniqueLengthsFile returns the absolute path of the unique sequence
// lengths CSV, which must exist
func (s *QuantificationService) uniqueLengthsFile() (string, error) {
	raw := s.sweep.Run.QuantifierParams()[UniqueLengthsParam]
	if raw == "" {
		return "", errors.InvalidOption(UniqueLengthsParam, raw,
			"A unique sequence lengths file must be given as quantifier parameter "+UniqueLengthsParam)
	}
	path, err := filepath.Abs(raw)
	if err == nil {
		var info os.FileInfo
		if info, err = os.Stat(path); err == nil && info.IsDir() {
			err = os.ErrNotExist
		}
	}
	if err != nil {
		return "", errors.InvalidOption(UniqueLengthsParam, raw, "Unique sequence lengths file does not exist")
	}
	return path, nil
}

// Script builds run_quantification.sh for one set. Everything it writes
// outside the shared quantifier references stays in the run directory.
func (s *QuantificationService) Script(set parameters.Set) *script.Script {
	m := set.Method()
	p := s.Params(set)
	unique, err := s.uniqueLengthsFile()
	if err != nil {
		unique = p.Extra[UniqueLengthsParam]
	}

	assemble := fmt.Sprintf("%s assemble --method %s --run-dir . --pro-file %s --counts %s --unique-lengths %s",
		s.program, m.Name(), filepath.Join(s.sweep.Tracker.ReadsDir(set), flux.ProFile), TranscriptCountsFile, unique)

	sc := script.New()
	sc.Section(m.PreparatoryCommands(p)...)
	sc.Section(m.QuantificationCommands(p)...)
	sc.Commented("Remove intermediate files", m.CleanupCommands()...)
	sc.Commented("Count transcripts per gene",
		fmt.Sprintf("%s count-transcripts %s > %s.tmp && mv %s.tmp %s",
			s.program, p.TranscriptGTF, TranscriptCountsFile, TranscriptCountsFile, TranscriptCountsFile))
	sc.Commented("Assemble real and calculated abundances into "+tables.TPMFile, assemble)
	return sc
}

func (s *QuantificationService) prepare(_ context.Context, set parameters.Set) error {
	if err := os.MkdirAll(s.sweep.Run.QuantifierDir(), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", s.sweep.Run.QuantifierDir())
	}
	dir := s.sweep.Tracker.RunDir(set)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create run directory %s", dir)
	}
	if err := s.Script(set).WriteFile(filepath.Join(dir, QuantificationScript)); err != nil {
		return errors.Wrapf(err, "write %s", QuantificationScript)
	}
	s.sweep.Logger.Info("Prepared quantification for %s", s.sweep.Catalog.Describe(set))
	return nil
}

func (s *QuantificationService) launch(ctx context.Context, set parameters.Set) error {
	return s.launcher.Launch(ctx, s.sweep.Tracker.RunDir(set), QuantificationScript)
}
