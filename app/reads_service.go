package app

import (
	"context"
	"os"
	"path/filepath"

	"piquant/domain/parameters"
	"piquant/internal/errors"
	"piquant/internal/flux"
	"piquant/internal/runstate"
	"piquant/internal/script"
	"piquant/ports"
)

// ReadsService prepares, launches and checks read simulations. Sets passed
// to it carry no quantification method.
type ReadsService struct {
	sweep    *Sweep
	launcher ports.Launcher
}

func NewReadsService(sweep *Sweep, launcher ports.Launcher) *ReadsService {
	return &ReadsService{sweep: sweep, launcher: launcher}
}

// Simulation describes the read simulation of one set
func (s *ReadsService) Simulation(set parameters.Set) flux.Simulation {
	run := s.sweep.Run
	return flux.Simulation{
		TranscriptGTF:  run.TranscriptGTF(),
		GenomeFastaDir: run.GenomeFastaDir(),
		NumFragments:   run.NumFragments(),
		ReadLength:     set.ReadLength(),
		ReadDepth:      set.ReadDepth(),
		PairedEnd:      set.PairedEnd(),
		Errors:         set.Errors(),
		Bias:           set.Bias(),
	}
}

// Prepare creates each reads directory with its Flux Simulator parameters
// and simulation script. Every directory must not exist yet.
func (s *ReadsService) Prepare(ctx context.Context, sets []parameters.Set) error {
	return s.sweep.Catalog.Execute(ctx, sets, s.checkDirectory(runstate.Prepare), s.prepare)
}

// Create launches the simulation script of each prepared reads directory
func (s *ReadsService) Create(ctx context.Context, sets []parameters.Set) error {
	return s.sweep.Catalog.Execute(ctx, sets, s.checkDirectory(runstate.Create), s.launch)
}

// Check reports which simulations have produced their reads
func (s *ReadsService) Check(ctx context.Context, sets []parameters.Set) ([]runstate.Completion, error) {
	var completions []runstate.Completion
	err := s.sweep.Catalog.Execute(ctx, sets, s.checkDirectory(runstate.Check),
		func(_ context.Context, set parameters.Set) error {
			c := s.sweep.Tracker.CheckReadsCompletion(set)
			s.sweep.reportCompletion(c)
			completions = append(completions, c)
			return nil
		})
	return completions, err
}

func (s *ReadsService) checkDirectory(mode runstate.Mode) parameters.Stage {
	return func(_ context.Context, set parameters.Set) error {
		return s.sweep.Tracker.CheckReadsDirectory(set, mode)
	}
}

func (s *ReadsService) prepare(_ context.Context, set parameters.Set) error {
	dir := s.sweep.Tracker.ReadsDir(set)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create reads directory %s", dir)
	}

	sim := s.Simulation(set)
	if err := script.WriteLines(dir, flux.ParamsFile, sim.Params()); err != nil {
		return errors.Wrapf(err, "write %s", flux.ParamsFile)
	}
	if err := sim.Script().WriteFile(filepath.Join(dir, flux.SimulationScript)); err != nil {
		return errors.Wrapf(err, "write %s", flux.SimulationScript)
	}
	s.sweep.Logger.Info("Prepared reads for %s", s.sweep.Catalog.Describe(set))
	return nil
}

func (s *ReadsService) launch(ctx context.Context, set parameters.Set) error {
	return s.launcher.Launch(ctx, s.sweep.Tracker.ReadsDir(set), flux.SimulationScript)
}
