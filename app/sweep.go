package app

import (
	"piquant/domain/core"
	"piquant/domain/parameters"
	"piquant/internal"
	"piquant/internal/config"
	"piquant/internal/runstate"
)

// Sweep is the context shared by every stage of one command invocation:
// the validated run options, the parameter catalog and the on-disk state
// of the output directory
type Sweep struct {
	ID      core.SweepID
	Run     config.Run
	Catalog *parameters.Catalog
	Tracker *runstate.Tracker
	Logger  *internal.Logger
}

// NewSweep tags the logger with a fresh sweep id
func NewSweep(run config.Run, catalog *parameters.Catalog, logger *internal.Logger) *Sweep {
	id := core.NewSweepID()
	return &Sweep{
		ID:      id,
		Run:     run,
		Catalog: catalog,
		Tracker: runstate.New(run.OutputDir(), catalog),
		Logger:  logger.With("sweep", id.String()),
	}
}

// reportCompletion logs a completion check. Incomplete runs are warnings,
// never errors, so every set of a sweep gets checked.
func (s *Sweep) reportCompletion(c runstate.Completion) {
	if c.Complete {
		s.Logger.Debug("%s", c)
		return
	}
	s.Logger.Warn("%s", c)
}
