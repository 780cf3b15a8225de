package slides

import (
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/gemdale/reportkit/internal/deal"
	"github.com/gemdale/reportkit/internal/pptx"
)

func newDeck(t *testing.T) *pptx.Presentation {
	t.Helper()
	deck, err := pptx.New(pptx.Inches(13.33), pptx.Inches(7.5))
	if err != nil {
		t.Fatal(err)
	}
	return deck
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestAddAnalysisTable(t *testing.T) {
	deck := newDeck(t)
	rows := [][]string{{"时间", "三房", deal.PriceColumn("三房")}, {"2024-01", "12", "61000"}}
	if err := AddAnalysisTable(deck, rows); err != nil {
		t.Fatal(err)
	}
	texts := deck.Slide(0).Texts()
	if !slices.Equal(texts, []string{"时间", "三房", "三房_成交均价 (元/m²)", "2024-01", "12", "61000"}) {
		t.Errorf("unexpected table text %v", texts)
	}
	if err := AddAnalysisTable(deck, nil); !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestSalesTitle(t *testing.T) {
	if got := SalesTitle("泗泾", ""); got != "泗泾分户型销售情况" {
		t.Errorf("expected default classification, got %q", got)
	}
	if got := SalesTitle("泗泾", deal.ByPropertyType); got != "泗泾分物业类型销售情况" {
		t.Errorf("expected 物业类型 title, got %q", got)
	}
}

func TestSalesBars(t *testing.T) {
	day := func(y int, m time.Month) time.Time { return time.Date(y, m, 10, 0, 0, 0, 0, time.UTC) }
	deals := []deal.Deal{
		{Date: day(2023, 12), RoomType: "三房", Area: 100, Total: 6000000},
		{Date: day(2024, 2), RoomType: "三房", Area: 100, Total: 6200000},
		{Date: day(2024, 2), RoomType: "四房", Area: 140, Total: 9800000},
	}
	res, err := deal.Analyze(deals, deal.ByRoomType, 1)
	if err != nil {
		t.Fatal(err)
	}
	bar := SalesBars(res)
	if !slices.Equal(bar.Categories, []string{"12", "2024-01", "02"}) {
		t.Errorf("unexpected month labels %v", bar.Categories)
	}
	if len(bar.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(bar.Series))
	}
	if bar.Series[0].Name != "三房" || !slices.Equal(bar.Series[0].Values, []float64{1, 0, 1}) {
		t.Errorf("unexpected first series %+v", bar.Series[0])
	}
	if bar.Series[1].Name != "四房" || !slices.Equal(bar.Series[1].Values, []float64{0, 0, 1}) {
		t.Errorf("unexpected second series %+v", bar.Series[1])
	}
}

func TestAddSalesChartAndPicture(t *testing.T) {
	deck := newDeck(t)
	bar := pptx.Bar{Categories: []string{"01", "02"}, Series: []pptx.Series{{Name: "三房", Values: []float64{3, 4}}}}
	if err := AddSalesChart(deck, "泗泾分户型销售情况", bar); err != nil {
		t.Fatal(err)
	}
	s := deck.Slide(1)
	if s.ChartCount() != 1 {
		t.Errorf("expected 1 chart, got %d", s.ChartCount())
	}
	if !slices.Contains(s.Texts(), "泗泾分户型销售情况") {
		t.Errorf("expected chart title, got %v", s.Texts())
	}

	img := filepath.Join(t.TempDir(), "chart.png")
	writePNG(t, img, 300, 200)
	if err := AddSalesPicture(deck, "泗泾分户型销售情况", img); err != nil {
		t.Fatal(err)
	}
	if s.PictureCount() != 1 {
		t.Errorf("expected 1 picture, got %d", s.PictureCount())
	}
}

func TestFloorPlanCells(t *testing.T) {
	width, lefts := FloorPlanCells(13.33, 3)
	if width != 1.8 || len(lefts) != 3 {
		t.Fatalf("expected three 1.8in cells, got %v %v", width, lefts)
	}
	if math.Abs(lefts[0]-1.655) > 1e-9 || math.Abs(lefts[1]-lefts[0]-4.11) > 1e-9 {
		t.Errorf("unexpected lefts %v", lefts)
	}

	width, _ = FloorPlanCells(10, 8)
	if math.Abs(width-1.06875) > 1e-9 {
		t.Errorf("expected width to shrink to the cell, got %v", width)
	}
	if width, lefts := FloorPlanCells(10, 0); width != 0 || lefts != nil {
		t.Errorf("expected no cells, got %v %v", width, lefts)
	}
}

func TestAddFloorPlanPictures(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	writePNG(t, img, 40, 30)

	deck := newDeck(t)
	n, err := AddFloorPlanPictures(deck, []string{filepath.Join(dir, "missing.png"), img})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 picture placed, got %d", n)
	}
	s := deck.Slide(2)
	if s.PictureCount() != 1 {
		t.Errorf("expected 1 picture, got %d", s.PictureCount())
	}
	if !slices.Contains(s.Texts(), "户型 1") {
		t.Errorf("expected caption, got %v", s.Texts())
	}
}

func TestAddFloorPlanText(t *testing.T) {
	deck := newDeck(t)
	if err := AddFloorPlanText(deck, nil); !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
	if err := AddFloorPlanText(deck, []string{"南北通透。", "方正实用。"}); err != nil {
		t.Fatal(err)
	}
	texts := deck.Slide(2).Texts()
	for _, want := range []string{"户型 1: 南北通透。", "户型 2: 方正实用。"} {
		if !slices.Contains(texts, want) {
			t.Errorf("expected %q, got %v", want, texts)
		}
	}
}

func TestParseRegionShares(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []Share
	}{
		{
			name: "shares below heading",
			text: "1. 客户画像\n改善为主\n2. 地域来源\n本地改善60%，外区导入40%。",
			want: []Share{{"本地改善", 60}, {"外区导入", 40}},
		},
		{
			name: "shares on heading line",
			text: "地域来源：本地35%，外省约5.5％\n3. 购买动机：改善50%",
			want: []Share{{"本地", 35}, {"外省", 5.5}},
		},
		{
			name: "no heading",
			text: "本地改善60%",
		},
	}
	for _, c := range cases {
		got := ParseRegionShares(c.text)
		if !slices.Equal(got, c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestAddRegionPie(t *testing.T) {
	deck := newDeck(t)
	if err := AddRegionPie(deck, nil); !errors.Is(err, ErrNoRegions) {
		t.Errorf("expected ErrNoRegions, got %v", err)
	}
	if err := AddRegionPie(deck, []Share{{"本地", 60}, {"外区", 40}}); err != nil {
		t.Fatal(err)
	}
	if deck.SlideCount() != 5 || deck.Slide(4).ChartCount() != 1 {
		t.Errorf("expected a chart on page 5, got %d slides", deck.SlideCount())
	}

	r := RegionPieRect(13.33, 7.5)
	if math.Abs(pptx.ToInches(r.X)-6.9315) > 0.01 || math.Abs(pptx.ToInches(r.W)-5.9985) > 0.01 {
		t.Errorf("unexpected pie frame %.3f,%.3f", pptx.ToInches(r.X), pptx.ToInches(r.W))
	}
}
