// Package workspace resolves the per-project working directory layout:
// {root}/{project}_{YYYYMMDD}/ holds the CRIC exports and inputs,
// processed_data/ beneath it every generated artifact.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the directory date stamp format.
const DateLayout = "20060102"

var (
	ErrInvalidProject = errors.New("invalid project name")
	ErrInvalidDate    = errors.New("invalid date, expected YYYYMMDD")
)

// Inputs overrides the default input file names. Relative names resolve
// against the project directory.
type Inputs struct {
	Housing      string `yaml:"housing" json:"housing,omitempty"`
	Land         string `yaml:"land" json:"land,omitempty"`
	Surroundings string `yaml:"surroundings" json:"surroundings,omitempty"`
	Supply       string `yaml:"supply" json:"supply,omitempty"`
	Deals        string `yaml:"deals" json:"deals,omitempty"`
}

type Workspace struct {
	Root    string
	Project string
	Date    string

	inputs Inputs
}

// New returns the workspace for project on the given day.
func New(root, project string, day time.Time) (Workspace, error) {
	return Parse(root, project, day.Format(DateLayout))
}

// Parse validates project and a YYYYMMDD date string.
func Parse(root, project, date string) (Workspace, error) {
	project = strings.TrimSpace(project)
	if project == "" || project == "." || project == ".." || strings.ContainsAny(project, `/\`) {
		return Workspace{}, fmt.Errorf("%w: %q", ErrInvalidProject, project)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Workspace{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return Workspace{Root: root, Project: project, Date: date}, nil
}

// WithInputs returns a copy using the non-empty names in in.
func (w Workspace) WithInputs(in Inputs) Workspace {
	w.inputs = in
	return w
}

func (w Workspace) Dir() string {
	return filepath.Join(w.Root, w.Project+"_"+w.Date)
}

func (w Workspace) Processed() string {
	return filepath.Join(w.Dir(), "processed_data")
}

// Ensure creates the project and processed_data directories.
func (w Workspace) Ensure() error {
	if err := os.MkdirAll(w.Processed(), 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

func (w Workspace) input(override, suffix string) string {
	if override == "" {
		return filepath.Join(w.Dir(), w.Project+"_"+suffix)
	}
	if filepath.IsAbs(override) {
		return override
	}
	return filepath.Join(w.Dir(), override)
}

func (w Workspace) output(suffix string) string {
	return filepath.Join(w.Processed(), w.Project+"_"+suffix)
}

// Inputs, exported from CRIC or supplied by the analyst.

func (w Workspace) HousingInput() string      { return w.input(w.inputs.Housing, "基本信息.txt") }
func (w Workspace) LandInput() string         { return w.input(w.inputs.Land, "土地信息.txt") }
func (w Workspace) SurroundingsInput() string { return w.input(w.inputs.Surroundings, "周边信息.txt") }
func (w Workspace) SupplyInput() string       { return w.input(w.inputs.Supply, "供应明细底表.xlsx") }
func (w Workspace) DealInput() string         { return w.input(w.inputs.Deals, "成交分析结果.xlsx") }

// Generated artifacts under processed_data.

func (w Workspace) HousingJSON() string        { return w.output("房子基本信息.json") }
func (w Workspace) LandJSON() string           { return w.output("土地基本信息.json") }
func (w Workspace) KaipanWorkbook() string     { return w.output("开盘信息.xlsx") }
func (w Workspace) SupplyWorkbook() string     { return w.output("供应明细表.xlsx") }
func (w Workspace) SurroundingSummary() string { return w.output("llm_周边信息.txt") }
func (w Workspace) CustomerAnalysis() string   { return w.output("客户分析.txt") }
func (w Workspace) DealWorkbook() string       { return w.output("成交分析结果.xlsx") }
func (w Workspace) DealChart() string          { return w.output("成交结果分析混合图与表.png") }
func (w Workspace) FloorPlanAnalysis() string  { return w.output("户型分析.txt") }
func (w Workspace) Deck() string               { return w.output("gemdale_housing_project_template.pptx") }

// Result is where a pipeline run records its stage outcomes.
func (w Workspace) Result() string {
	return filepath.Join(w.Processed(), "pipeline_result.json")
}
