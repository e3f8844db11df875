package config

import (
	"os"
	"path/filepath"
	"strconv"

	"piquant/internal/errors"
)

// RunOptions are the raw, unvalidated options of one command invocation
type RunOptions struct {
	OutputDir          string
	TranscriptGTF      string
	GenomeFastaDir     string
	NumFragments       int
	Threads            int
	DetectionThreshold float64
	QuantifierParams   map[string]string
	PrepareOnly        bool
	RunOnly            bool
	// RequireInputs demands the GTF file and genome directory exist
	RequireInputs bool
}

// Run is the validated configuration shared by every stage of a sweep. It
// is built once by NewRun and never modified; pass it by value.
type Run struct {
	outputDir          string
	transcriptGTF      string
	genomeFastaDir     string
	numFragments       int
	threads            int
	detectionThreshold float64
	quantifierParams   map[string]string
	prepareOnly        bool
	runOnly            bool
}

// NewRun validates options. The output directory must exist and is made
// absolute so generated scripts work from any directory.
func NewRun(o RunOptions) (Run, error) {
	if o.PrepareOnly && o.RunOnly {
		return Run{}, errors.ConfigInvalid("--prepare-only and --run-only are mutually exclusive")
	}
	if o.NumFragments <= 0 {
		return Run{}, errors.InvalidOption("num-fragments", strconv.Itoa(o.NumFragments),
			"Number of fragments must be a positive integer")
	}
	if o.Threads <= 0 {
		return Run{}, errors.InvalidOption("threads", strconv.Itoa(o.Threads),
			"Thread count must be a positive integer")
	}
	if o.DetectionThreshold < 0 {
		return Run{}, errors.InvalidOption("threshold", strconv.FormatFloat(o.DetectionThreshold, 'g', -1, 64),
			"Detection threshold must not be negative")
	}

	outDir, err := filepath.Abs(o.OutputDir)
	if err != nil {
		return Run{}, errors.WrapCode(err, errors.CodeConfigInvalid, "invalid output directory")
	}
	if !isDir(outDir) {
		return Run{}, errors.InvalidOption("out-dir", o.OutputDir, "Output parent directory does not exist")
	}

	r := Run{
		outputDir:          outDir,
		numFragments:       o.NumFragments,
		threads:            o.Threads,
		detectionThreshold: o.DetectionThreshold,
		prepareOnly:        o.PrepareOnly,
		runOnly:            o.RunOnly,
		quantifierParams:   make(map[string]string, len(o.QuantifierParams)),
	}
	for k, v := range o.QuantifierParams {
		r.quantifierParams[k] = v
	}

	r.transcriptGTF, r.genomeFastaDir = o.TranscriptGTF, o.GenomeFastaDir
	if o.RequireInputs {
		if r.transcriptGTF, err = absFile(o.TranscriptGTF); err != nil {
			return Run{}, errors.InvalidOption("transcript-gtf-file", o.TranscriptGTF, "Transcript GTF file does not exist")
		}
		if r.genomeFastaDir, err = filepath.Abs(o.GenomeFastaDir); err != nil || !isDir(r.genomeFastaDir) {
			return Run{}, errors.InvalidOption("genome-fasta-dir", o.GenomeFastaDir, "Genome FASTA directory does not exist")
		}
	}
	return r, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func absFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", os.ErrNotExist
	}
	return abs, nil
}

func (r Run) OutputDir() string           { return r.outputDir }
func (r Run) TranscriptGTF() string       { return r.transcriptGTF }
func (r Run) GenomeFastaDir() string      { return r.genomeFastaDir }
func (r Run) NumFragments() int           { return r.numFragments }
func (r Run) Threads() int                { return r.threads }
func (r Run) DetectionThreshold() float64 { return r.detectionThreshold }
func (r Run) PrepareOnly() bool           { return r.prepareOnly }
func (r Run) RunOnly() bool               { return r.runOnly }

// QuantifierParams returns a copy of the free-form quantifier settings
func (r Run) QuantifierParams() map[string]string {
	out := make(map[string]string, len(r.quantifierParams))
	for k, v := range r.quantifierParams {
		out[k] = v
	}
	return out
}

// QuantifierDir holds indexes shared by every run of the sweep
func (r Run) QuantifierDir() string {
	return filepath.Join(r.outputDir, "quantifier_scratch")
}
