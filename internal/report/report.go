// Package report segments an investment-analysis report (MinerU full.md
// or a Word document) into parts, sections and typed content blocks.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// BlockType classifies a run of report content.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockTable BlockType = "table"
	BlockImage BlockType = "image"
	BlockList  BlockType = "list"
)

// Block is one typed chunk of section content. Image blocks hold the file
// name under images/, table blocks the raw HTML, list blocks the item lines.
type Block struct {
	Type     BlockType      `json:"type"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// KPI is a headline indicator card shown on the site.
type KPI struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

type Section struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Blocks       []Block  `json:"blocks"`
	KeyTakeaways []string `json:"key_takeaways"`
	KPIs         []KPI    `json:"kpis"`
}

// Assets lists the media a design option refers to.
type Assets struct {
	Images []string `json:"images"`
	Tables []string `json:"tables"`
	Models []string `json:"models"`
}

// Part4Option is a design scheme found in the part4 chapter.
type Part4Option struct {
	OptionID    string   `json:"option_id"`
	OptionTitle string   `json:"option_title"`
	SourcePages []string `json:"source_pages"`
	Assets      Assets   `json:"assets"`
	Summary     string   `json:"summary"`
	Advantages  []string `json:"advantages"`
}

type Part struct {
	PartID       string        `json:"part_id"`
	Title        string        `json:"title"`
	Sections     []*Section    `json:"sections"`
	Part4Options []Part4Option `json:"part4_options,omitempty"`
}

type Meta struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Project string `json:"project,omitempty"`
}

type Report struct {
	Meta  Meta    `json:"meta"`
	Parts []*Part `json:"parts"`
}

// SectionCount returns the number of sections across all parts.
func (r *Report) SectionCount() int {
	n := 0
	for _, p := range r.Parts {
		n += len(p.Sections)
	}
	return n
}

// Part returns the part with the given id, or nil.
func (r *Report) Part(id string) *Part {
	for _, p := range r.Parts {
		if p.PartID == id {
			return p
		}
	}
	return nil
}

// Marshal encodes the report as indented JSON without HTML escaping, so
// table markup and CJK text stay readable.
func Marshal(r *Report) ([]byte, error) {
	normalize(r)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteJSON writes the report to path, creating parent directories.
func WriteJSON(r *Report, path string) error {
	data, err := Marshal(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a report previously written by WriteJSON.
func ReadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	normalize(&r)
	return &r, nil
}

// normalize replaces nil collections so the JSON carries [] and {}.
func normalize(r *Report) {
	if r.Parts == nil {
		r.Parts = []*Part{}
	}
	for _, p := range r.Parts {
		if p.Sections == nil {
			p.Sections = []*Section{}
		}
		for _, s := range p.Sections {
			if s.Blocks == nil {
				s.Blocks = []Block{}
			}
			for i := range s.Blocks {
				if s.Blocks[i].Metadata == nil {
					s.Blocks[i].Metadata = map[string]any{}
				}
			}
			if s.KeyTakeaways == nil {
				s.KeyTakeaways = []string{}
			}
			if s.KPIs == nil {
				s.KPIs = []KPI{}
			}
		}
		for i := range p.Part4Options {
			o := &p.Part4Options[i]
			if o.SourcePages == nil {
				o.SourcePages = []string{}
			}
			if o.Advantages == nil {
				o.Advantages = []string{}
			}
			if o.Assets.Images == nil {
				o.Assets.Images = []string{}
			}
			if o.Assets.Tables == nil {
				o.Assets.Tables = []string{}
			}
			if o.Assets.Models == nil {
				o.Assets.Models = []string{}
			}
		}
	}
}
