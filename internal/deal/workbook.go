package deal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

// WriteWorkbook saves the result as one row per month under the Columns
// header.
func WriteWorkbook(r *Result, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f := excelize.NewFile()
	defer f.Close()

	header := r.Columns()
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, m := range r.Months {
		row := []any{m}
		for _, c := range r.Categories {
			cell := r.Get(m, c)
			row = append(row, cell.Count, cell.AvgPrice)
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// ReadTable returns the first sheet of a result workbook as text rows,
// header first. Short rows are padded to the header width.
func ReadTable(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoDeals
	}
	width := len(rows[0])
	for i, r := range rows {
		if len(r) < width {
			rows[i] = append(r, make([]string, width-len(r))...)
		}
	}
	return rows, nil
}

// ReadResult rebuilds a Result from a workbook written by WriteWorkbook.
func ReadResult(path, classification string) (*Result, error) {
	rows, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	header := rows[0]
	res := &Result{Classification: classification, Cells: map[string]map[string]Cell{}}
	for i := 1; i+1 < len(header); i += 2 {
		res.Categories = append(res.Categories, header[i])
	}
	for _, r := range rows[1:] {
		m := r[0]
		if m == "" {
			continue
		}
		res.Months = append(res.Months, m)
		res.Cells[m] = map[string]Cell{}
		for k, c := range res.Categories {
			n, _ := strconv.Atoi(r[1+2*k])
			p, _ := strconv.ParseFloat(r[2+2*k], 64)
			res.Cells[m][c] = Cell{Count: n, AvgPrice: p}
		}
	}
	return res, nil
}
