package report

import (
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"piquant/domain/stats"
	"piquant/internal/errors"
)

// OverallSheet holds the whole-table values; each stratification gets a
// sheet named after its stratifier
const OverallSheet = "overall"

// maxSheetName is excelize's limit on sheet name length
const maxSheetName = 31

// WriteWorkbook saves the assessment as an XLSX workbook. Undefined values
// are left as empty cells.
func WriteWorkbook(path string, a *stats.Assessment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", OverallSheet); err != nil {
		return errors.Wrap(err, "failed to name overall sheet")
	}
	header := OverallHeader(a)
	values := make([]float64, len(a.Statistics))
	for i, name := range a.Statistics {
		values[i] = a.Value(name)
	}
	if err := writeSheetRow(f, OverallSheet, 1, stringCells(header)); err != nil {
		return err
	}
	if err := writeSheetRow(f, OverallSheet, 2, numberCells(values)); err != nil {
		return err
	}

	for _, s := range a.Strata {
		sheet := sheetName(s.Stratifier)
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "failed to add sheet %s", sheet)
		}
		if err := writeSheetRow(f, sheet, 1, stringCells(append([]string{s.Stratifier}, a.Statistics...))); err != nil {
			return err
		}
		for i, b := range s.Bins {
			row := []interface{}{b.Label}
			for _, name := range a.Statistics {
				row = append(row, numberCell(b.Value(name)))
			}
			if err := writeSheetRow(f, sheet, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "invalid cell coordinates")
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return errors.Wrapf(err, "failed to write row %s of sheet %s", strconv.Itoa(row), sheet)
	}
	return nil
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

func stringCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func numberCells(values []float64) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = numberCell(v)
	}
	return cells
}

func numberCell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
