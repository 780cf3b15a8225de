package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// ManifestName is the optional per-project settings file.
const ManifestName = "project.yaml"

// DefaultHeaderImage is used when the manifest names none.
const DefaultHeaderImage = "resources/images/gemdale_header.png"

// DefaultFloorPlans are the floor plan images reviewed when the manifest
// names none.
var DefaultFloorPlans = []string{
	"resources/images/room_style1.jpg",
	"resources/images/room_style2.jpg",
	"resources/images/room_style3.jpg",
	"resources/images/room_style4.jpg",
	"resources/images/room_style5.jpg",
}

// Deal classifications.
const (
	ClassifyByRoomType     = "户型"
	ClassifyByPropertyType = "物业类型"
)

// Position places a table on a slide, in inches.
type Position struct {
	Slide  int     `yaml:"slide" json:"slide"`
	Left   float64 `yaml:"left" json:"left"`
	Top    float64 `yaml:"top" json:"top"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Models selects the chat model per task. Empty fields keep the
// configured default.
type Models struct {
	Surroundings string `yaml:"surroundings" json:"surroundings,omitempty"`
	Kaipan       string `yaml:"kaipan" json:"kaipan,omitempty"`
	Customer     string `yaml:"customer" json:"customer,omitempty"`
	FloorPlan    string `yaml:"floor_plan" json:"floor_plan,omitempty"`
	Vision       string `yaml:"vision" json:"vision,omitempty"`
}

// Manifest holds the per-project overrides. Every field is optional.
type Manifest struct {
	Inputs      Inputs    `yaml:"inputs" json:"inputs"`
	Slides      int       `yaml:"slides" json:"slides,omitempty"`
	HeaderImage string    `yaml:"header_image" json:"header_image,omitempty"`
	DataTable   *Position `yaml:"data_table" json:"data_table,omitempty"`
	Address     string    `yaml:"address" json:"address,omitempty"`
	Models      Models    `yaml:"models" json:"models"`

	// DealClassification groups deals by 户型 (default) or 物业类型.
	DealClassification string   `yaml:"deal_classification" json:"deal_classification,omitempty"`
	FloorPlans         []string `yaml:"floor_plans" json:"floor_plans,omitempty"`
}

// LoadManifest reads dir/project.yaml. A missing file yields an empty
// manifest.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if len(data) == 0 {
		return &m, nil
	}
	if err := yaml.UnmarshalWithOptions(data, &m, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m.Slides < 0 {
		return nil, fmt.Errorf("parse %s: slides must not be negative", path)
	}
	switch m.DealClassification {
	case "", ClassifyByRoomType, ClassifyByPropertyType:
	default:
		return nil, fmt.Errorf("parse %s: deal_classification must be %s or %s", path, ClassifyByRoomType, ClassifyByPropertyType)
	}
	return &m, nil
}

// HeaderImagePath returns the configured header image or the default.
func (m *Manifest) HeaderImagePath() string {
	if m == nil || m.HeaderImage == "" {
		return DefaultHeaderImage
	}
	return m.HeaderImage
}

// Classification returns the deal classification, 户型 by default.
func (m *Manifest) Classification() string {
	if m == nil || m.DealClassification == "" {
		return ClassifyByRoomType
	}
	return m.DealClassification
}

// FloorPlanImages returns the configured floor plan images or the
// defaults.
func (m *Manifest) FloorPlanImages() []string {
	if m == nil || len(m.FloorPlans) == 0 {
		return DefaultFloorPlans
	}
	return m.FloorPlans
}
