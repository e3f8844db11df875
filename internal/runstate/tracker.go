// Package runstate observes the on-disk progress of every parameter set.
// The directory layout under the output root is the only state: nothing
// is persisted besides the files the pipeline itself writes.
package runstate

import (
	"fmt"
	"os"
	"path/filepath"

	"piquant/domain/core"
	"piquant/domain/parameters"
	"piquant/internal/errors"
	"piquant/internal/flux"
	"piquant/internal/tables"
)

// State of one parameter set, in pipeline order
type State int

const (
	Absent State = iota
	ReadsPrepared
	ReadsCreated
	QuantificationRun
	QuantificationComplete
)

func (s State) String() string {
	switch s {
	case ReadsPrepared:
		return "reads_prepared"
	case ReadsCreated:
		return "reads_created"
	case QuantificationRun:
		return "quantification_run"
	case QuantificationComplete:
		return "quantification_complete"
	default:
		return "absent"
	}
}

// Mode is the reads stage being requested
type Mode int

const (
	Prepare Mode = iota
	Create
	Check
)

func (m Mode) String() string {
	switch m {
	case Create:
		return "create"
	case Check:
		return "check"
	default:
		return "prepare"
	}
}

// Tracker derives directory paths from parameter sets and asserts their
// existence matches what a stage expects
type Tracker struct {
	outputDir string
	catalog   *parameters.Catalog
}

func New(outputDir string, catalog *parameters.Catalog) *Tracker {
	return &Tracker{outputDir: outputDir, catalog: catalog}
}

func (t *Tracker) OutputDir() string { return t.outputDir }

// ReadsName names the reads directory, which ignores the method
func (t *Tracker) ReadsName(set parameters.Set) string {
	return t.catalog.Name(set.Without(parameters.QuantMethod))
}

// RunName names the quantification run directory
func (t *Tracker) RunName(set parameters.Set) string {
	return t.catalog.Name(set)
}

func (t *Tracker) ReadsDir(set parameters.Set) string {
	return filepath.Join(t.outputDir, t.ReadsName(set))
}

func (t *Tracker) RunDir(set parameters.Set) string {
	return filepath.Join(t.outputDir, t.RunName(set))
}

// Observe reports how far the set has progressed
func (t *Tracker) Observe(set parameters.Set) State {
	if set.Has(parameters.QuantMethod) {
		if t.CheckQuantificationCompletion(set).Complete {
			return QuantificationComplete
		}
		if exists(t.RunDir(set)) {
			return QuantificationRun
		}
	}
	if t.CheckReadsCompletion(set).Complete {
		return ReadsCreated
	}
	if exists(t.ReadsDir(set)) {
		return ReadsPrepared
	}
	return Absent
}

// CheckReadsDirectory asserts the reads directory is absent before
// preparing, and present before creating or checking reads
func (t *Tracker) CheckReadsDirectory(set parameters.Set, mode Mode) error {
	return expectDir("Reads", t.ReadsDir(set), mode != Prepare)
}

// RequireReadsDirectory asserts the reads a quantification run needs exist
func (t *Tracker) RequireReadsDirectory(set parameters.Set) error {
	return expectDir("Reads", t.ReadsDir(set), true)
}

// CheckRunDirectory asserts the run directory exists exactly when only
// running previously prepared scripts
func (t *Tracker) CheckRunDirectory(set parameters.Set, runOnly bool) error {
	return expectDir("Run", t.RunDir(set), runOnly)
}

func expectDir(kind, dir string, shouldExist bool) error {
	if shouldExist == exists(dir) {
		return nil
	}
	if shouldExist {
		return errors.WrapCode(core.ErrDirectoryMissing, errors.CodeStatePrecondition,
			"%s directory '%s' should already exist", kind, dir)
	}
	return errors.WrapCode(core.ErrDirectoryExists, errors.CodeStatePrecondition,
		"%s directory '%s' should not already exist", kind, dir)
}

// Completion is the outcome of a completion check. An incomplete run is
// reported, never returned as an error, so a sweep can check every set.
type Completion struct {
	Name     string
	Path     string
	Complete bool
}

func (c Completion) String() string {
	if c.Complete {
		return fmt.Sprintf("Run %s completed.", c.Name)
	}
	return fmt.Sprintf("Run %s did not complete.", c.Name)
}

// CheckReadsCompletion looks for the simulated reads file
func (t *Tracker) CheckReadsCompletion(set parameters.Set) Completion {
	path := filepath.Join(t.ReadsDir(set), flux.CompletionFile(set.Errors(), set.PairedEnd()))
	return Completion{Name: t.ReadsName(set), Path: path, Complete: isFile(path)}
}

// CheckQuantificationCompletion looks for the assembled TPM table
func (t *Tracker) CheckQuantificationCompletion(set parameters.Set) Completion {
	path := filepath.Join(t.RunDir(set), tables.TPMFile)
	return Completion{Name: t.RunName(set), Path: path, Complete: isFile(path)}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
