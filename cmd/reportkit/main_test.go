package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleReport = `松江区泗泾04-08号地块
# PART1 项目概况
# 01 区位分析
项目位于松江区核心板块。
<table><tr><td>指标</td><td>数值</td></tr></table>
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseReportCommand(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "full.md")
	if err := os.WriteFile(md, []byte(sampleReport), 0o644); err != nil {
		t.Fatal(err)
	}
	tables := filepath.Join(dir, "tables.xlsx")
	if _, err := execute(t, "parse-report", md, "--tables", tables); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []string{filepath.Join(dir, "report_data.json"), tables} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}
}

func TestSiteCommandFromJSON(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "full.md")
	if err := os.WriteFile(md, []byte(sampleReport), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "parse-report", md); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "site")
	stdout, err := execute(t, "site", filepath.Join(dir, "report_data.json"), "-o", out, "--project", "泗泾项目")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "泗泾项目 - 金地集团投资部: 1 sections") {
		t.Errorf("unexpected output %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(out, "index.html")); err != nil {
		t.Errorf("expected index.html: %v", err)
	}
}

func TestTemplateCommand(t *testing.T) {
	root := t.TempDir()
	if _, err := execute(t, "template", "泗泾", "--root", root, "--date", "20250101", "--slides", "3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deck := filepath.Join(root, "泗泾_20250101", "processed_data", "泗泾_gemdale_housing_project_template.pptx")
	if _, err := os.Stat(deck); err != nil {
		t.Errorf("expected deck at %s: %v", deck, err)
	}
}

func TestWorkspaceRejectsBadDate(t *testing.T) {
	if _, err := execute(t, "kaipan", "泗泾", "--root", t.TempDir(), "--date", "2025"); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestKitchenDeckCommand(t *testing.T) {
	dir := t.TempDir()
	catalog, err := execute(t, "kitchen-deck", "--print-catalog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(catalog, "title: 现代幸福厨房") {
		t.Fatalf("expected the built-in catalog, got %q", catalog)
	}
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(catalog), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "kitchen.pptx")
	if _, err := execute(t, "kitchen-deck", "--catalog", path, "-o", out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected %s: %v", out, err)
	}

	if _, err := execute(t, "kitchen-deck", "--root", dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "procurement", "现代幸福厨房_*.pptx"))
	if len(matches) != 1 {
		t.Errorf("expected one deck under procurement/, got %v", matches)
	}
}
