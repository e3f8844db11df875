package quantifiers

import (
	"os"
	"path/filepath"

	"piquant/internal/errors"
	"piquant/ports"
)

// Abundances is the calculated abundance table of one method in one run
// directory. It starts unloaded; Load reads the method's output file once and
// later calls reuse the table.
type Abundances struct {
	method ports.QuantificationMethod
	runDir string
	table  map[string]float64
}

func NewAbundances(method ports.QuantificationMethod, runDir string) *Abundances {
	return &Abundances{method: method, runDir: runDir}
}

// Path is the method's output file inside the run directory
func (a *Abundances) Path() string {
	return filepath.Join(a.runDir, a.method.AbundanceFile())
}

func (a *Abundances) Loaded() bool {
	return a.table != nil
}

// Load reads the output file unless it has already been read
func (a *Abundances) Load() error {
	if a.Loaded() {
		return nil
	}
	f, err := os.Open(a.Path())
	if err != nil {
		return errors.WrapCode(err, errors.CodeIncomplete, "%s output missing", a.method.Name())
	}
	defer f.Close()

	table, err := a.method.ReadAbundances(f)
	if err != nil {
		return errors.WrapCode(err, errors.CodeInvalidInput, "read %s", a.Path())
	}
	if table == nil {
		table = map[string]float64{}
	}
	a.table = table
	return nil
}

// Get returns the abundance of a transcript, 0 when the method did not
// report it. The table must be loaded.
func (a *Abundances) Get(transcriptID string) float64 {
	return a.table[transcriptID]
}

// Lookup returns the abundance and whether the method reported the
// transcript at all. The table must be loaded.
func (a *Abundances) Lookup(transcriptID string) (float64, bool) {
	v, ok := a.table[transcriptID]
	return v, ok
}

// Len is the number of transcripts reported
func (a *Abundances) Len() int {
	return len(a.table)
}
