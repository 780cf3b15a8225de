package parser

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestTextParser_Lines(t *testing.T) {
	input := "基本信息:\r\n所属城市\n上海\n\n更多\n"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	want := []string{"基本信息:", "所属城市", "上海", "", "更多"}
	if len(doc.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(doc.Lines), doc.Lines)
	}
	for i, w := range want {
		if doc.Lines[i] != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, doc.Lines[i])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Lines) != 0 {
		t.Errorf("expected 0 lines, got %d", len(doc.Lines))
	}
}

func TestTextParser_GB18030Fallback(t *testing.T) {
	encoded, err := simplifiedchinese.GB18030.NewEncoder().String("开发商：金地集团\n楼栋数：12")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(encoded), "基本信息.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc.Lines))
	}
	if doc.Lines[0] != "开发商：金地集团" {
		t.Errorf("expected %q, got %q", "开发商：金地集团", doc.Lines[0])
	}
}

func TestDecodeText_StripsBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	s, err := DecodeText(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "hello" {
		t.Errorf("expected %q, got %q", "hello", s)
	}
}

func TestForFile(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"full.md", false},
		{"report.DOCX", false},
		{"page.html", false},
		{"supply.csv", false},
		{"scan.pdf", false},
		{"deck.pptx", true},
	}
	for _, tc := range cases {
		_, err := ForFile(tc.name)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestCSVParser_Rows(t *testing.T) {
	input := "2024/01/02,预2024001,项目A,路1号,101,住宅,三房,89.6\n2024/01/02,预2024001,项目A,路1号,102,住宅,四房\n"
	p := &CSVParser{}
	doc, err := p.Parse(bytes.NewReader([]byte(input)), "supply.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(doc.Rows))
	}
	if len(doc.Rows[1]) != 7 {
		t.Errorf("expected ragged second row of 7 cells, got %d", len(doc.Rows[1]))
	}
	if doc.Rows[0][6] != "三房" {
		t.Errorf("expected %q, got %q", "三房", doc.Rows[0][6])
	}
}
