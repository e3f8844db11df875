package app

import (
	"io"
	"os"
	"path/filepath"

	"piquant/adapters/quantifiers"
	"piquant/internal"
	"piquant/internal/errors"
	"piquant/internal/tables"
	"piquant/ports"
)

// AssemblyRequest names the inputs joined into one run's tpms.csv
type AssemblyRequest struct {
	Method  ports.QuantificationMethod
	RunDir  string
	ProFile string
	// CountsFile holds transcript,gene,transcript_count rows
	CountsFile string
	// UniqueLengthsFile holds transcript,unique-length rows
	UniqueLengthsFile string
}

// AssemblyService builds the per-run data files the assessment reads
type AssemblyService struct {
	logger *internal.Logger
}

func NewAssemblyService(logger *internal.Logger) *AssemblyService {
	return &AssemblyService{logger: logger}
}

// CountTranscripts writes the number of transcripts of each transcript's
// gene, read from a GTF file
func (s *AssemblyService) CountTranscripts(gtfPath string, w io.Writer) error {
	f, err := os.Open(gtfPath)
	if err != nil {
		return errors.WrapCode(err, errors.CodeInvalidInput, "open transcript GTF file")
	}
	defer f.Close()

	counts, err := tables.CountTranscripts(f)
	if err != nil {
		return errors.WrapCode(err, errors.CodeInvalidInput, "read %s", gtfPath)
	}
	s.logger.Debug("Counted %d transcripts in %s", len(counts), gtfPath)
	return tables.WriteTranscriptCounts(w, counts)
}

// Assemble joins the expression profile, gene transcript counts, unique
// lengths and the method's output into tpms.csv in the run directory, and
// returns its path
func (s *AssemblyService) Assemble(req AssemblyRequest) (string, error) {
	if req.UniqueLengthsFile == "" {
		return "", errors.InvalidOption("unique-lengths", "", "A unique sequence lengths file is required")
	}
	abundances := quantifiers.NewAbundances(req.Method, req.RunDir)
	if err := abundances.Load(); err != nil {
		return "", err
	}

	profile, err := readWith(req.ProFile, tables.ReadProfile)
	if err != nil {
		return "", err
	}
	counts, err := readWith(req.CountsFile, func(r io.Reader) (map[string]int, error) {
		return tables.ReadIntColumn(r, tables.TranscriptCountCol)
	})
	if err != nil {
		return "", err
	}
	uniqueLengths, err := readWith(req.UniqueLengthsFile, func(r io.Reader) (map[string]int, error) {
		return tables.ReadIntColumn(r, tables.UniqueLengthCol)
	})
	if err != nil {
		return "", err
	}
	if len(profile) == 0 {
		return "", errors.InvalidInput("expression profile " + req.ProFile + " lists no transcripts")
	}

	truth, calculated, err := tables.Assemble(profile, counts, uniqueLengths, abundances.Lookup)
	if err != nil {
		return "", errors.WrapCode(err, errors.CodeInvalidInput, "assemble %s", tables.TPMFile)
	}

	path := filepath.Join(req.RunDir, tables.TPMFile)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	if err := tables.WriteTPMs(f, truth, calculated); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "close %s", path)
	}
	s.logger.Info("Assembled %d transcripts (%d quantified by %s) into %s",
		len(truth), abundances.Len(), req.Method.Name(), path)
	return path, nil
}

func readWith[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.WrapCode(err, errors.CodeInvalidInput, "open %s", path)
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, errors.WrapCode(err, errors.CodeInvalidInput, "read %s", path)
	}
	return v, nil
}
