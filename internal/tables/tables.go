// Package tables reads and writes the tabular interchange files of a run:
// the Flux Simulator expression profile, per-gene transcript counts,
// unique sequence lengths and the assembled TPM table.
package tables

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"piquant/domain/abundance"
	"piquant/domain/core"
	"piquant/internal/flux"
)

// Column names of the CSV files
const (
	TranscriptCol      = "transcript"
	GeneCol            = "gene"
	TranscriptCountCol = "transcript_count"
	UniqueLengthCol    = "unique-length"
	LengthCol          = "length"
	RealTPMCol         = "real-tpm"
	CalculatedTPMCol   = "calculated-tpm"
)

// TPMFile is the assembled data file of a quantification run
const TPMFile = "tpms.csv"

// ProfileEntry is one transcript of a Flux Simulator expression profile
type ProfileEntry struct {
	TranscriptID string
	Length       int
	Fraction     float64
}

// RealTPM scales the expressed fraction to transcripts per million
func (p ProfileEntry) RealTPM() float64 {
	return 1000000 * p.Fraction
}

// ReadProfile reads a whitespace-separated .pro file, which has no header
func ReadProfile(r io.Reader) ([]ProfileEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []ProfileEntry
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) <= flux.ProFractionCol {
			return nil, fmt.Errorf("profile line %d: expected at least %d fields, got %d", line, flux.ProFractionCol+1, len(fields))
		}
		length, err := strconv.Atoi(fields[flux.ProLengthCol])
		if err != nil {
			return nil, fmt.Errorf("profile line %d: length: %w", line, err)
		}
		frac, err := strconv.ParseFloat(fields[flux.ProFractionCol], 64)
		if err != nil {
			return nil, fmt.Errorf("profile line %d: fraction: %w", line, err)
		}
		out = append(out, ProfileEntry{TranscriptID: fields[flux.ProTranscriptIDCol], Length: length, Fraction: frac})
	}
	return out, scanner.Err()
}

// ReadIntColumn reads a headed CSV and maps the transcript column to an
// integer column
func ReadIntColumn(r io.Reader, valueCol string) (map[string]int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idIdx, valIdx := indexOf(header, TranscriptCol), indexOf(header, valueCol)
	if idIdx < 0 || valIdx < 0 {
		return nil, fmt.Errorf("header must contain columns %q and %q", TranscriptCol, valueCol)
	}

	out := make(map[string]int)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(strings.TrimSpace(rec[valIdx]))
		if err != nil {
			return nil, fmt.Errorf("%s %q for %s: %w", valueCol, rec[valIdx], rec[idIdx], err)
		}
		out[rec[idIdx]] = v
	}
	return out, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Assemble joins the expression profile with per-gene counts, unique
// lengths and calculated abundances. Every profiled transcript must have a
// count and a unique length.
func Assemble(profile []ProfileEntry, counts, uniqueLengths map[string]int, calculated abundance.Lookup) ([]abundance.Truth, map[string]float64, error) {
	truth := make([]abundance.Truth, 0, len(profile))
	calc := make(map[string]float64, len(profile))
	for _, p := range profile {
		count, ok := counts[p.TranscriptID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s has no %s", core.ErrMissingTranscript, p.TranscriptID, TranscriptCountCol)
		}
		unique, ok := uniqueLengths[p.TranscriptID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s has no %s", core.ErrMissingTranscript, p.TranscriptID, UniqueLengthCol)
		}
		truth = append(truth, abundance.Truth{
			TranscriptID:    p.TranscriptID,
			Length:          p.Length,
			UniqueLength:    unique,
			TranscriptCount: count,
			Real:            p.RealTPM(),
		})
		if v, ok := calculated(p.TranscriptID); ok {
			calc[p.TranscriptID] = v
		}
	}
	return truth, calc, nil
}

var tpmHeader = []string{TranscriptCol, LengthCol, UniqueLengthCol, TranscriptCountCol, RealTPMCol, CalculatedTPMCol}

// WriteTPMs writes the assembled table. Transcripts without a calculated
// value are written with 0.
func WriteTPMs(w io.Writer, truth []abundance.Truth, calculated map[string]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tpmHeader); err != nil {
		return err
	}
	for _, t := range truth {
		if err := cw.Write([]string{
			t.TranscriptID,
			strconv.Itoa(t.Length),
			strconv.Itoa(t.UniqueLength),
			strconv.Itoa(t.TranscriptCount),
			strconv.FormatFloat(t.Real, 'g', -1, 64),
			strconv.FormatFloat(calculated[t.TranscriptID], 'g', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTPMs reads an assembled table back into ground truth and calculated
// abundances
func ReadTPMs(r io.Reader) ([]abundance.Truth, map[string]float64, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	idx := make([]int, len(tpmHeader))
	for i, col := range tpmHeader {
		if idx[i] = indexOf(header, col); idx[i] < 0 {
			return nil, nil, fmt.Errorf("missing column %q", col)
		}
	}

	var truth []abundance.Truth
	calc := make(map[string]float64)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		var t abundance.Truth
		t.TranscriptID = rec[idx[0]]
		ints := []*int{&t.Length, &t.UniqueLength, &t.TranscriptCount}
		for i, dst := range ints {
			if *dst, err = strconv.Atoi(rec[idx[i+1]]); err != nil {
				return nil, nil, fmt.Errorf("line %d: %s: %w", line, tpmHeader[i+1], err)
			}
		}
		if t.Real, err = strconv.ParseFloat(rec[idx[4]], 64); err != nil {
			return nil, nil, fmt.Errorf("line %d: %s: %w", line, RealTPMCol, err)
		}
		c, err := strconv.ParseFloat(rec[idx[5]], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %s: %w", line, CalculatedTPMCol, err)
		}
		truth = append(truth, t)
		calc[t.TranscriptID] = c
	}
	return truth, calc, nil
}
