// Package site renders a parsed report as a static single-page website.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gemdale/reportkit/internal/report"
)

//go:embed assets/*
var assetFS embed.FS

//go:embed templates/index.html.tmpl
var indexSource string

var indexTmpl = template.Must(template.New("index").Parse(indexSource))

const (
	defaultTitle = "投资分析报告"
	titleSuffix  = " - 金地集团投资部"
	maxKPIs      = 4
)

type tab struct {
	ID    string
	Label string
}

// Tabs is the fixed header navigation, home first.
var Tabs = []tab{
	{"home", "首页"},
	{"part1", "项目概况"},
	{"part2", "市场竞争"},
	{"part3", "客户定位"},
	{"part4", "设计方案"},
	{"part5", "运营计划"},
	{"part6", "投资测算"},
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// Options controls where Generate writes and what it copies.
type Options struct {
	OutputDir string
	ImagesDir string
	// Project overrides the report's meta project when set.
	Project string
	Log     *slog.Logger
}

type pageView struct {
	Title   string
	Heading string
	Source  string
	Project string
	Tabs    []tab
	Parts   []partView
}

type partView struct {
	ID       string
	Title    string
	Sections []sectionView
	Options  []optionView
}

type sectionView struct {
	ID        string
	Part      string
	Title     string
	Takeaways []template.HTML
	KPIs      []report.KPI
	Blocks    []template.HTML
}

type optionView struct {
	Anchor     string
	Title      string
	Summary    template.HTML
	Advantages []template.HTML
}

// Generate writes index.html, the static assets, the copied images and
// the report JSON into opts.OutputDir.
func Generate(r *report.Report, opts Options) error {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.OutputDir == "" {
		return fmt.Errorf("site: output dir is required")
	}
	if opts.Project != "" {
		r.Meta.Project = opts.Project
	}

	assetsDir := filepath.Join(opts.OutputDir, "assets")
	if err := os.MkdirAll(filepath.Join(assetsDir, "images"), 0o755); err != nil {
		return fmt.Errorf("create site dirs: %w", err)
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, buildView(r)); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(opts.OutputDir, "index.html"), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if err := writeAssets(assetsDir); err != nil {
		return err
	}

	copied, err := copyImages(opts.ImagesDir, filepath.Join(assetsDir, "images"))
	if err != nil {
		return err
	}

	if err := report.WriteJSON(r, filepath.Join(assetsDir, "report_data.json")); err != nil {
		return err
	}

	log.Info("site generated",
		"output", opts.OutputDir,
		"parts", len(r.Parts),
		"sections", r.SectionCount(),
		"images", copied,
	)
	return nil
}

// BuildFromMarkdown parses and enriches a full.md report, stores
// report_data.json next to it and generates the site. Images default to
// the images/ directory beside the markdown file.
func BuildFromMarkdown(mdPath string, opts Options) (*report.Report, error) {
	if opts.ImagesDir == "" {
		opts.ImagesDir = filepath.Join(filepath.Dir(mdPath), "images")
	}
	r, err := report.NewParser(mdPath, opts.ImagesDir).Parse()
	if err != nil {
		return nil, err
	}
	report.Enrich(r)
	if opts.Project != "" {
		r.Meta.Project = opts.Project
	}
	if err := report.WriteJSON(r, filepath.Join(filepath.Dir(mdPath), "report_data.json")); err != nil {
		return nil, err
	}
	if err := Generate(r, opts); err != nil {
		return nil, err
	}
	return r, nil
}

// Title returns the page title for a report.
func Title(r *report.Report) string {
	name := r.Meta.Project
	if name == "" {
		name = defaultTitle
	}
	return name + titleSuffix
}

func buildView(r *report.Report) pageView {
	heading := r.Meta.Title
	if heading == "" {
		heading = defaultTitle
	}
	v := pageView{
		Title:   Title(r),
		Heading: heading,
		Source:  r.Meta.Source,
		Project: r.Meta.Project,
		Tabs:    Tabs,
	}
	for _, p := range r.Parts {
		pv := partView{ID: p.PartID, Title: p.Title}
		for _, s := range p.Sections {
			sv := sectionView{ID: s.ID, Part: p.PartID, Title: s.Title}
			for _, t := range s.KeyTakeaways {
				sv.Takeaways = append(sv.Takeaways, Inline(t))
			}
			sv.KPIs = s.KPIs
			if len(sv.KPIs) > maxKPIs {
				sv.KPIs = sv.KPIs[:maxKPIs]
			}
			for _, b := range s.Blocks {
				if h := renderBlock(b, s.Title); h != "" {
					sv.Blocks = append(sv.Blocks, h)
				}
			}
			pv.Sections = append(pv.Sections, sv)
		}
		for _, o := range p.Part4Options {
			ov := optionView{
				Anchor: "part4-" + o.OptionID,
				Title:  o.OptionTitle,
			}
			if o.Summary != "" {
				ov.Summary = Inline(o.Summary)
			}
			for _, a := range o.Advantages {
				ov.Advantages = append(ov.Advantages, Inline(a))
			}
			pv.Options = append(pv.Options, ov)
		}
		v.Parts = append(v.Parts, pv)
	}
	return v
}

func writeAssets(dir string) error {
	return fs.WalkDir(assetFS, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := assetFS.ReadFile(path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, filepath.Base(path))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("write asset %s: %w", dst, err)
		}
		return nil
	})
}

// copyImages copies the supported images from src into dst. A missing
// source directory copies nothing.
func copyImages(src, dst string) (int, error) {
	if src == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(src)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list images: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
