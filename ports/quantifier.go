package ports

import "io"

// QuantifierParams carries the locations a quantification method needs to
// build its commands for one run.
type QuantifierParams struct {
	TranscriptGTF  string
	GenomeFastaDir string
	// QuantifierDir holds indexes and references shared by every run of a sweep
	QuantifierDir string
	// SimulatedReads is set for single-end runs; paired-end runs set
	// LeftReads and RightReads instead
	SimulatedReads string
	LeftReads      string
	RightReads     string
	FastqReads     bool
	Threads        int
	// Extra holds free-form key=value quantifier parameters from the command line
	Extra map[string]string
}

// PairedEnd reports whether the params describe paired-end reads
func (p QuantifierParams) PairedEnd() bool {
	return p.SimulatedReads == ""
}

// QuantificationMethod describes one third-party quantification tool. The
// command functions return shell lines in execution order; the orchestrator
// never interprets them.
type QuantificationMethod interface {
	Name() string
	RequiresPairedEnd() bool

	// PreparatoryCommands build indexes or references; they must guard on
	// the existence of their target directory so they only run once per
	// reference.
	PreparatoryCommands(p QuantifierParams) []string
	QuantificationCommands(p QuantifierParams) []string
	// CleanupCommands remove bulky intermediates, keeping only AbundanceFile.
	CleanupCommands() []string

	// AbundanceFile is the native output path, relative to the run directory
	AbundanceFile() string
	// ReadAbundances parses the native output into transcript id -> TPM-like
	// abundance, normalised to one million total where the tool does not
	// already do so.
	ReadAbundances(r io.Reader) (map[string]float64, error)
}
