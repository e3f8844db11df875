package report

import (
	"io"

	"piquant/domain/stats"
)

// SummaryRow is one assessed run of a sweep with the value labels of its
// parameters, in the same order as the summary's parameter columns
type SummaryRow struct {
	Parameters []string
	Assessment *stats.Assessment
}

// Summary tabulates the overall values of every run of a sweep
type Summary struct {
	Parameters []string
	Statistics []string
	Rows       []SummaryRow
}

// Records returns the summary as rows of cells, header first
func (s Summary) Records() [][]string {
	records := make([][]string, 0, len(s.Rows)+1)
	header := append(append([]string(nil), s.Parameters...), s.Statistics...)
	records = append(records, header)
	for _, row := range s.Rows {
		record := append([]string(nil), row.Parameters...)
		for _, name := range s.Statistics {
			record = append(record, stats.FormatValue(row.Assessment.Value(name)))
		}
		records = append(records, record)
	}
	return records
}

// WriteSummaryCSV writes the summary table
func WriteSummaryCSV(w io.Writer, s Summary) error {
	return writeCSV(w, s.Records())
}
