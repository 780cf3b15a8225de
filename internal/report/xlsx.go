package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ErrNoTables is returned by ExportTables for a report without tables.
var ErrNoTables = errors.New("report has no tables")

const indexSheet = "目录"

// ExportTables writes every table block to its own sheet of an xlsx
// workbook. The first sheet indexes the tables by part and section.
// It returns the number of tables written.
func ExportTables(r *Report, path string) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", indexSheet); err != nil {
		return 0, err
	}
	header := []any{"工作表", "章节", "小节", "行数"}
	if err := f.SetSheetRow(indexSheet, "A1", &header); err != nil {
		return 0, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}
	if err := f.SetRowStyle(indexSheet, 1, 1, bold); err != nil {
		return 0, err
	}

	n := 0
	for _, part := range r.Parts {
		for _, sec := range part.Sections {
			for _, b := range sec.Blocks {
				rows, err := BlockRows(b)
				if err != nil {
					return n, fmt.Errorf("section %s: %w", sec.ID, err)
				}
				if len(rows) == 0 {
					continue
				}
				n++
				sheet := fmt.Sprintf("表%d", n)
				if _, err := f.NewSheet(sheet); err != nil {
					return n, err
				}
				for i, row := range rows {
					cells := make([]any, len(row))
					for j, v := range row {
						cells[j] = v
					}
					cell, _ := excelize.CoordinatesToCellName(1, i+1)
					if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
						return n, err
					}
				}
				entry := []any{sheet, part.Title, sec.Title, len(rows)}
				cell, _ := excelize.CoordinatesToCellName(1, n+1)
				if err := f.SetSheetRow(indexSheet, cell, &entry); err != nil {
					return n, err
				}
			}
		}
	}
	if n == 0 {
		return 0, ErrNoTables
	}
	if err := f.SetColWidth(indexSheet, "B", "C", 30); err != nil {
		return n, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return n, err
	}
	if err := f.SaveAs(path); err != nil {
		return n, fmt.Errorf("save %s: %w", path, err)
	}
	return n, nil
}
