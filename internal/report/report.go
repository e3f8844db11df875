// Package report renders assessments as CSV tables, an XLSX workbook and a
// Markdown/HTML summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strings"

	"piquant/domain/stats"
	"piquant/internal/errors"
)

// File name suffixes appended to an output prefix
const (
	OverallSuffix    = "_overall.csv"
	StratifiedPrefix = "_by_"
	WorkbookSuffix   = ".xlsx"
	HTMLSuffix       = ".html"
	JSONSuffix       = ".json"
)

// OverallHeader and OverallRow lay out the whole-table values, one column
// per statistic
func OverallHeader(a *stats.Assessment) []string {
	return append([]string(nil), a.Statistics...)
}

func OverallRow(a *stats.Assessment) []string {
	row := make([]string, len(a.Statistics))
	for i, name := range a.Statistics {
		row[i] = stats.FormatValue(a.Value(name))
	}
	return row
}

// StratifiedRows lays out one stratification: a bin label column followed
// by one column per statistic, bins ascending
func StratifiedRows(a *stats.Assessment, s stats.Stratification) [][]string {
	rows := make([][]string, 0, len(s.Bins)+1)
	rows = append(rows, append([]string{s.Stratifier}, a.Statistics...))
	for _, b := range s.Bins {
		row := make([]string, 0, len(a.Statistics)+1)
		row = append(row, b.Label)
		for _, name := range a.Statistics {
			row = append(row, stats.FormatValue(b.Value(name)))
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteOverallCSV writes the overall values as a single-row table
func WriteOverallCSV(w io.Writer, a *stats.Assessment) error {
	return writeCSV(w, [][]string{OverallHeader(a), OverallRow(a)})
}

// WriteStratifiedCSV writes one stratification
func WriteStratifiedCSV(w io.Writer, a *stats.Assessment, s stats.Stratification) error {
	return writeCSV(w, StratifiedRows(a, s))
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrap(err, "failed to write CSV")
	}
	return nil
}

// StratifiedFile is the per-stratifier CSV path for an output prefix
func StratifiedFile(prefix, stratifier string) string {
	return prefix + StratifiedPrefix + strings.ReplaceAll(stratifier, " ", "_") + ".csv"
}

// WriteAll writes every output format for one assessment under prefix and
// returns the paths written
func WriteAll(prefix string, a *stats.Assessment) ([]string, error) {
	var written []string

	overall := prefix + OverallSuffix
	if err := writeFile(overall, func(w io.Writer) error { return WriteOverallCSV(w, a) }); err != nil {
		return written, err
	}
	written = append(written, overall)

	for _, s := range a.Strata {
		s := s
		path := StratifiedFile(prefix, s.Stratifier)
		if err := writeFile(path, func(w io.Writer) error { return WriteStratifiedCSV(w, a, s) }); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	workbook := prefix + WorkbookSuffix
	if err := WriteWorkbook(workbook, a); err != nil {
		return written, err
	}
	written = append(written, workbook)

	page := prefix + HTMLSuffix
	if err := writeFile(page, func(w io.Writer) error {
		_, err := w.Write(HTML(a))
		return err
	}); err != nil {
		return written, err
	}
	written = append(written, page)

	doc := prefix + JSONSuffix
	if err := writeFile(doc, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}); err != nil {
		return written, err
	}
	written = append(written, doc)

	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", path)
	}
	return nil
}
