package supply

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestAreaBand(t *testing.T) {
	cases := []struct {
		area float64
		want string
	}{
		{89.4, "90㎡以下"},
		{89.5, "90-105㎡"}, // half to even rounds 89.5 up to 90
		{104.9, "90-105㎡"},
		{105, "105-120㎡"},
		{119.5, "120-140㎡"},
		{139.4, "120-140㎡"},
		{140, "140㎡以上"},
	}
	for _, c := range cases {
		if got := AreaBand(c.area); got != c.want {
			t.Errorf("AreaBand(%v): expected %q, got %q", c.area, c.want, got)
		}
	}
}

const csvTable = `2024/01/01,预0001,华发四季半岛,松江区,1-101,住宅,三房,97.7
2024/01/01,预0001,华发四季半岛,松江区,1-102,住宅,三房,98.2
2024/01/01,预0001,华发四季半岛,松江区,1-103,住宅,四房,142.4
2024/01/01,预0002,华发四季半岛,松江区,2-101,别墅,四房,180
2024/01/01,预0002,华发四季半岛,松江区,2-102,别墅,,180
2024/01/01,预0002,华发四季半岛,松江区,2-103,住宅,三房,不详
供应时间,预售证编号,项目名称,项目地址,房间号,物业类型,户型,面积
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "供应明细底表.csv")
	if err := os.WriteFile(path, []byte(csvTable), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	units, err := Load(writeCSV(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 4 {
		t.Fatalf("expected 4 units after dropping incomplete rows, got %d", len(units))
	}
	if units[0].Area != 98 {
		t.Errorf("expected area rounded to 98, got %v", units[0].Area)
	}
	if units[0].Band != "90-105㎡" {
		t.Errorf("expected band 90-105㎡, got %q", units[0].Band)
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supply.xlsx")
	f := excelize.NewFile()
	rows := [][]any{
		{"2024/01/01", "预0001", "p", "addr", "1-101", "住宅", "三房", 97.7},
		{"2024/01/01", "预0001", "p", "addr", "1-102", "住宅", "两房", 88},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	units, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 2 || units[1].Band != "90㎡以下" {
		t.Fatalf("expected 2 units with second under 90㎡, got %+v", units)
	}
}

func TestLoadUnsupported(t *testing.T) {
	if _, err := Load("supply.txt"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestAnalyze(t *testing.T) {
	units, err := Load(writeCSV(t))
	if err != nil {
		t.Fatal(err)
	}
	a := Analyze(units)

	if a.Total != 4 {
		t.Fatalf("expected 4 units, got %d", a.Total)
	}
	if len(a.Types) != 2 || a.Types[0].PropertyType != "住宅" {
		t.Fatalf("expected 住宅 then 别墅, got %+v", a.Types)
	}
	home := a.Types[0]
	if home.Total != 3 || home.Share != "75.00%" {
		t.Errorf("expected 3 units at 75.00%%, got %d at %q", home.Total, home.Share)
	}
	if home.RoomTypes[0].Label != "三房" || home.RoomTypes[0].N != 2 {
		t.Errorf("expected 三房 x2 first, got %+v", home.RoomTypes[0])
	}
	if len(home.Combos) != 2 || home.Combos[0].RoomType != "三房" || home.Combos[0].Band != "90-105㎡" {
		t.Errorf("unexpected combos %+v", home.Combos)
	}
	if a.MinArea != 98 || a.MaxArea != 180 {
		t.Errorf("expected min 98 max 180, got %v %v", a.MinArea, a.MaxArea)
	}
	if a.MedianArea != 120 {
		t.Errorf("expected median 120, got %v", a.MedianArea)
	}
	// Ties keep first appearance.
	if a.Bands[0].Label != "90-105㎡" || a.Bands[1].Label != "140㎡以上" || a.Bands[1].N != 2 {
		t.Errorf("expected 90-105㎡ then 140㎡以上, got %+v", a.Bands)
	}
	if !strings.Contains(a.Summary(), "【别墅】") {
		t.Error("expected summary to list 别墅")
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(nil)
	if a.Total != 0 || len(a.Types) != 0 {
		t.Errorf("expected empty analysis, got %+v", a)
	}
}

func TestWriteWorkbook(t *testing.T) {
	units, err := Load(writeCSV(t))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out", "供应明细表.xlsx")
	if err := WriteWorkbook(Analyze(units), path); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "详细分析结果" || sheets[1] != "总体统计" {
		t.Fatalf("unexpected sheets %q", sheets)
	}
	rows, err := f.GetRows("详细分析结果")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 combo rows, got %d", len(rows))
	}
	if rows[1][4] != "50.00%" || rows[1][5] != "66.67%" {
		t.Errorf("expected 50.00%% / 66.67%%, got %q / %q", rows[1][4], rows[1][5])
	}
	stats, err := f.GetRows("总体统计")
	if err != nil {
		t.Fatal(err)
	}
	if stats[1][0] != "总单元数" || stats[1][1] != "4" {
		t.Errorf("expected 总单元数 4, got %q", stats[1])
	}
}
