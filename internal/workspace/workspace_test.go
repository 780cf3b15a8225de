package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPaths(t *testing.T) {
	ws, err := New("/data", "泗泾", time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := []struct {
		got  string
		want string
	}{
		{ws.Dir(), "/data/泗泾_20250307"},
		{ws.Processed(), "/data/泗泾_20250307/processed_data"},
		{ws.HousingInput(), "/data/泗泾_20250307/泗泾_基本信息.txt"},
		{ws.LandInput(), "/data/泗泾_20250307/泗泾_土地信息.txt"},
		{ws.SurroundingsInput(), "/data/泗泾_20250307/泗泾_周边信息.txt"},
		{ws.SupplyInput(), "/data/泗泾_20250307/泗泾_供应明细底表.xlsx"},
		{ws.DealInput(), "/data/泗泾_20250307/泗泾_成交分析结果.xlsx"},
		{ws.HousingJSON(), "/data/泗泾_20250307/processed_data/泗泾_房子基本信息.json"},
		{ws.LandJSON(), "/data/泗泾_20250307/processed_data/泗泾_土地基本信息.json"},
		{ws.KaipanWorkbook(), "/data/泗泾_20250307/processed_data/泗泾_开盘信息.xlsx"},
		{ws.SupplyWorkbook(), "/data/泗泾_20250307/processed_data/泗泾_供应明细表.xlsx"},
		{ws.SurroundingSummary(), "/data/泗泾_20250307/processed_data/泗泾_llm_周边信息.txt"},
		{ws.CustomerAnalysis(), "/data/泗泾_20250307/processed_data/泗泾_客户分析.txt"},
		{ws.DealWorkbook(), "/data/泗泾_20250307/processed_data/泗泾_成交分析结果.xlsx"},
		{ws.DealChart(), "/data/泗泾_20250307/processed_data/泗泾_成交结果分析混合图与表.png"},
		{ws.FloorPlanAnalysis(), "/data/泗泾_20250307/processed_data/泗泾_户型分析.txt"},
		{ws.Deck(), "/data/泗泾_20250307/processed_data/泗泾_gemdale_housing_project_template.pptx"},
		{ws.Result(), "/data/泗泾_20250307/processed_data/pipeline_result.json"},
	}
	for _, c := range cases {
		if filepath.ToSlash(c.got) != c.want {
			t.Errorf("expected %q, got %q", c.want, c.got)
		}
	}
}

func TestWithInputs(t *testing.T) {
	ws, err := Parse("/data", "p", "20250101")
	if err != nil {
		t.Fatal(err)
	}
	ws = ws.WithInputs(Inputs{Housing: "housing.html", Supply: "/abs/supply.csv"})
	if got := filepath.ToSlash(ws.HousingInput()); got != "/data/p_20250101/housing.html" {
		t.Errorf("expected relative override, got %q", got)
	}
	if got := filepath.ToSlash(ws.SupplyInput()); got != "/abs/supply.csv" {
		t.Errorf("expected absolute override, got %q", got)
	}
	if got := filepath.ToSlash(ws.LandInput()); got != "/data/p_20250101/p_土地信息.txt" {
		t.Errorf("expected default land input, got %q", got)
	}
}

func TestParseRejects(t *testing.T) {
	for _, project := range []string{"", "..", "a/b", `a\b`} {
		if _, err := Parse("/data", project, "20250101"); !errors.Is(err, ErrInvalidProject) {
			t.Errorf("project %q: expected ErrInvalidProject, got %v", project, err)
		}
	}
	for _, date := range []string{"2025-01-01", "20251301", "x"} {
		if _, err := Parse("/data", "p", date); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("date %q: expected ErrInvalidDate, got %v", date, err)
		}
	}
}

func TestEnsure(t *testing.T) {
	ws, err := Parse(t.TempDir(), "p", "20250101")
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.Ensure(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fi, err := os.Stat(ws.Processed()); err != nil || !fi.IsDir() {
		t.Fatalf("expected processed_data dir, got %v", err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("missing manifest: unexpected error: %v", err)
	}
	if m.HeaderImagePath() != DefaultHeaderImage {
		t.Errorf("expected default header image, got %q", m.HeaderImagePath())
	}

	content := `inputs:
  housing: 房子.txt
slides: 7
header_image: header.png
address: 松江区泗泾镇
data_table:
  slide: 1
  left: 7
  top: 2
  width: 5
  height: 3
models:
  customer: kimi-latest
  vision: qwen-vl
deal_classification: 物业类型
floor_plans:
  - plans/a.jpg
  - plans/b.png
`
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = LoadManifest(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Inputs.Housing != "房子.txt" {
		t.Errorf("expected housing override, got %q", m.Inputs.Housing)
	}
	if m.Slides != 7 {
		t.Errorf("expected 7 slides, got %d", m.Slides)
	}
	if m.HeaderImagePath() != "header.png" {
		t.Errorf("expected header.png, got %q", m.HeaderImagePath())
	}
	if m.DataTable == nil || m.DataTable.Left != 7 || m.DataTable.Width != 5 {
		t.Errorf("unexpected data table %+v", m.DataTable)
	}
	if m.Models.Customer != "kimi-latest" {
		t.Errorf("expected customer model, got %q", m.Models.Customer)
	}
	if m.Address != "松江区泗泾镇" {
		t.Errorf("expected address, got %q", m.Address)
	}
	if m.Models.Vision != "qwen-vl" {
		t.Errorf("expected vision model, got %q", m.Models.Vision)
	}
	if m.Classification() != ClassifyByPropertyType {
		t.Errorf("expected %q, got %q", ClassifyByPropertyType, m.Classification())
	}
	if got := m.FloorPlanImages(); len(got) != 2 || got[1] != "plans/b.png" {
		t.Errorf("unexpected floor plans %v", got)
	}
}

func TestManifestDefaults(t *testing.T) {
	var m *Manifest
	if m.Classification() != ClassifyByRoomType {
		t.Errorf("expected %q, got %q", ClassifyByRoomType, m.Classification())
	}
	if got := m.FloorPlanImages(); len(got) != 5 || got[0] != "resources/images/room_style1.jpg" {
		t.Errorf("unexpected default floor plans %v", got)
	}
}

func TestLoadManifestRejectsClassification(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte("deal_classification: 朝向\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(dir); err == nil {
		t.Fatal("expected error for unknown classification")
	}
}

func TestLoadManifestRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte("slidez: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(dir); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
