package kaipan

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const maxColWidth = 50

// WriteWorkbook writes the records under a bold header row.
func WriteWorkbook(records []Record, path string) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Values())
	}
	return writeSheet(Columns, rows, path)
}

func writeSheet(header []string, rows [][]any, path string) error {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for col := range header {
		longest := effectiveLen(header[col])
		for _, row := range rows {
			if col < len(row) {
				longest = max(longest, effectiveLen(fmt.Sprint(row[col])))
			}
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, ColumnWidth(longest)); err != nil {
			return fmt.Errorf("set width %s: %w", name, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// ColumnWidth converts an effective text length to a column width.
func ColumnWidth(effective int) float64 {
	return math.Min(float64(effective+2)*1.2, maxColWidth)
}

// effectiveLen counts a non-ASCII rune as two characters.
func effectiveLen(s string) int {
	n := 0
	for _, r := range s {
		if r > 127 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// ReadWorkbook returns the header and data rows of the first sheet. Short
// rows are padded to the header width.
func ReadWorkbook(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrNoRecords)
	}

	header := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		for len(r) < len(header) {
			r = append(r, "")
		}
		data = append(data, r)
	}
	return header, data, nil
}
