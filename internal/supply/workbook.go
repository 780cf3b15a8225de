package supply

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	detailSheet  = "详细分析结果"
	overallSheet = "总体统计"
)

var detailHeader = []any{"物业类型", "户型", "面积段", "单元数", "占总项目比例", "占该类型比例"}

// WriteWorkbook writes the 详细分析结果 and 总体统计 sheets.
func WriteWorkbook(a *Analysis, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", detailSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(detailSheet, "A1", &detailHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := 2
	for _, t := range a.Types {
		for _, c := range t.Combos {
			vals := []any{t.PropertyType, c.RoomType, c.Band, c.N, percent(c.N, a.Total), percent(c.N, t.Total)}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(detailSheet, cell, &vals); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	if _, err := f.NewSheet(overallSheet); err != nil {
		return err
	}
	overall := [][]any{
		{"统计项", "数值"},
		{"总单元数", a.Total},
		{"最小面积", a.MinArea},
		{"最大面积", a.MaxArea},
		{"平均面积", a.MeanArea},
		{"中位数面积", a.MedianArea},
	}
	for i, vals := range overall {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(overallSheet, cell, &vals); err != nil {
			return fmt.Errorf("write %s row %d: %w", overallSheet, i+1, err)
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
