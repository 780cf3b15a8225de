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

	"github.com/gemdale/reportkit/internal/pptx"
)

func fixedYear(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func TestTitles(t *testing.T) {
	got := Titles("华发四季半岛", 7)
	if got[0] != "x.x 一级竞品：华发四季半岛-基础信息" {
		t.Errorf("expected first title, got %q", got[0])
	}
	if got[4] != "x.x 一级竞品：华发四季半岛-客户分析" {
		t.Errorf("expected fifth title, got %q", got[4])
	}
	if got[6] != "标题：第7页标题" {
		t.Errorf("expected generic seventh title, got %q", got[6])
	}
}

func TestCreateTemplate(t *testing.T) {
	fixedYear(t)
	deck, err := CreateTemplate("华发四季半岛", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if deck.SlideCount() != DefaultSlides {
		t.Fatalf("expected %d slides, got %d", DefaultSlides, deck.SlideCount())
	}
	w, h := deck.SlideSize()
	if w != pptx.Inches(13.33) || h != pptx.Inches(7.5) {
		t.Errorf("expected 13.33x7.5in, got %.2fx%.2fin", pptx.ToInches(w), pptx.ToInches(h))
	}
	texts := deck.Slide(2).Texts()
	for _, want := range []string{"3", "Gemdale Corporation", "© 2025 Gemdale Corp. - All Rights Reserved", "x.x 一级竞品：华发四季半岛-户型分析"} {
		if !slices.Contains(texts, want) {
			t.Errorf("expected %q on page 3, got %v", want, texts)
		}
	}
	if deck.Slide(0).PictureCount() != 0 {
		t.Error("expected no pictures without a header image")
	}
}

func TestCreateTemplate_HeaderImage(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "header.png")
	f, err := os.Create(img)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 400, 20))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	deck, err := CreateTemplate("p", 2, img)
	if err != nil {
		t.Fatal(err)
	}
	if deck.Slide(0).PictureCount() != 1 || deck.Slide(1).PictureCount() != 1 {
		t.Fatal("expected header picture on every slide")
	}

	deck, err = CreateTemplate("p", 1, filepath.Join(dir, "missing.png"))
	if err != nil {
		t.Fatalf("expected fallback for a missing image, got %v", err)
	}
	if deck.Slide(0).PictureCount() != 0 {
		t.Error("expected no picture for a missing header image")
	}
}

func TestClampLeft(t *testing.T) {
	tests := []struct {
		left, width, slide, want float64
	}{
		{7.5, 5.5, 13.33, 7.5},
		{8.0, 5.5, 13.33, 13.33 - 5.5 - 0.2},
		{3.0, 20, 13.33, 0},
	}
	for _, tt := range tests {
		if got := ClampLeft(tt.left, tt.width, tt.slide); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ClampLeft(%v, %v, %v): expected %v, got %v", tt.left, tt.width, tt.slide, tt.want, got)
		}
	}
}

func TestAddDataTable(t *testing.T) {
	deck, err := pptx.New(pptx.Inches(13.33), pptx.Inches(7.5))
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]string{{"开发商", "华发股份"}, {"容积率", "2.0"}}
	if err := AddDataTable(deck, rows, DataTableOptions{Slide: 2, Left: 7.5, Top: 2, Width: 5.5, Height: 3}); err != nil {
		t.Fatal(err)
	}
	if deck.SlideCount() != 2 {
		t.Fatalf("expected slides appended up to page 2, got %d", deck.SlideCount())
	}
	texts := deck.Slide(1).Texts()
	if !slices.Equal(texts, []string{"开发商", "华发股份", "容积率", "2.0"}) {
		t.Errorf("unexpected table text %v", texts)
	}
	if err := AddDataTable(deck, nil, DefaultDataTableOptions()); !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestKaipanColumnWidths(t *testing.T) {
	widths := KaipanColumnWidths([]string{"开盘日期", "ID"}, [][]string{{"2023-06-30", "1"}})
	// 开盘日期: max(8*11, 10*9)*0.55/72 + 0.18
	want := 90*0.55/72 + 0.18
	if math.Abs(widths[0]-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, widths[0])
	}
	if widths[1] != 0.6 {
		t.Errorf("expected minimum width 0.6, got %v", widths[1])
	}

	header := make([]string, 12)
	for i := range header {
		header[i] = "高层最高单价元每平方米"
	}
	widths = KaipanColumnWidths(header, nil)
	total := 0.0
	for _, w := range widths {
		total += w
	}
	if math.Abs(total-11) > 1e-9 {
		t.Errorf("expected widths scaled to 11in, got %v", total)
	}
}

func TestAddKaipanTableAndSummary(t *testing.T) {
	deck, err := CreateTemplate("p", 5, "")
	if err != nil {
		t.Fatal(err)
	}
	header := []string{"开盘日期", "批次"}
	if err := AddKaipanTable(deck, header, [][]string{{"2023-06-30", "第一批"}, {"2023-09-01"}}); err != nil {
		t.Fatal(err)
	}
	if err := AddKaipanSummary(deck, " 首批开盘去化良好。 "); err != nil {
		t.Fatal(err)
	}
	texts := deck.Slide(1).Texts()
	for _, want := range []string{"开盘日期", "第一批", "2023-09-01", "首批开盘去化良好。"} {
		if !slices.Contains(texts, want) {
			t.Errorf("expected %q on page 2, got %v", want, texts)
		}
	}
	if err := AddKaipanTable(deck, nil, nil); !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestSurroundingParagraphs(t *testing.T) {
	paras := SurroundingParagraphs("1. 交通\n- 地铁9号线\n\n* 公交\n  2. 教育")
	if len(paras) != 5 {
		t.Fatalf("expected heading plus 4 lines, got %d", len(paras))
	}
	if !paras[0].Runs[0].Font.Bold || paras[0].Runs[0].Font.Size != 14 {
		t.Error("expected bold 14pt heading")
	}
	levels := []int{paras[1].Level, paras[2].Level, paras[3].Level, paras[4].Level}
	if !slices.Equal(levels, []int{0, 1, 1, 0}) {
		t.Errorf("unexpected levels %v", levels)
	}
	if paras[4].Runs[0].Text != "2. 教育" {
		t.Errorf("expected trimmed line, got %q", paras[4].Runs[0].Text)
	}
}

func TestPage4AndCustomerAnalysis(t *testing.T) {
	deck, err := pptx.New(pptx.Inches(13.33), pptx.Inches(7.5))
	if err != nil {
		t.Fatal(err)
	}
	if err := AddCustomerAnalysis(deck, "客户"); !errors.Is(err, ErrTooFewSlides) {
		t.Errorf("expected ErrTooFewSlides, got %v", err)
	}
	if err := AddSurroundingSummary(deck, "交通便利"); err != nil {
		t.Fatal(err)
	}
	if err := AddDecorationTable(deck, []string{"房间类型", "地面", "墙面", "配置"}, [][]string{{"卧室", "木地板", "乳胶漆", "-"}}); err != nil {
		t.Fatal(err)
	}
	if deck.SlideCount() != 4 {
		t.Fatalf("expected 4 slides, got %d", deck.SlideCount())
	}
	texts := deck.Slide(3).Texts()
	for _, want := range []string{"周边配套信息总结：", "交通便利", "房间类型", "木地板"} {
		if !slices.Contains(texts, want) {
			t.Errorf("expected %q on page 4, got %v", want, texts)
		}
	}

	deck.AddSlide()
	if err := AddCustomerAnalysis(deck, "客户以本地改善为主"); err != nil {
		t.Fatal(err)
	}
	if got := deck.Slide(4).Texts(); !slices.Equal(got, []string{"客户以本地改善为主"}) {
		t.Errorf("unexpected page 5 text %v", got)
	}
}
