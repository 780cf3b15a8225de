// Package procurement builds the kitchen procurement deck (现代幸福厨房):
// concept pages, one cover and one product page per kitchen section, the
// supplier matrix, the package offers and the appendix pages.
package procurement

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

//go:embed kitchen.yaml
var defaultCatalog []byte

// Layout limits of the product and package pages.
const (
	MaxProducts = 3
	MaxPackages = 4
)

var (
	ErrNoSections = errors.New("procurement: catalog has no sections")
	ErrNoPackages = errors.New("procurement: catalog has no packages")
)

type Product struct {
	Name       string   `yaml:"name"`
	Position   string   `yaml:"position"`
	Tags       []string `yaml:"tags"`
	Innovation string   `yaml:"innovation"`
	Stage      string   `yaml:"stage"`
	Params     string   `yaml:"params"`
	Source     string   `yaml:"source"`
	Reason     string   `yaml:"reason"`
	// Image is an optional local picture shown above the product.
	Image string `yaml:"image"`
}

type Supplier struct {
	Name      string `yaml:"name"`
	Advantage string `yaml:"advantage"`
	Level     string `yaml:"level"`
	Cost      string `yaml:"cost"`
}

// Section is one kitchen zone, keyed A, B, C...
type Section struct {
	Key       string     `yaml:"key"`
	Title     string     `yaml:"title"`
	Subtitle  string     `yaml:"subtitle"`
	Trends    []string   `yaml:"trends"`
	Products  []Product  `yaml:"products"`
	Suppliers []Supplier `yaml:"suppliers"`
	Image     string     `yaml:"image"`
}

// Heading is the section title as printed on its pages, "A. 智能烹饪区".
func (s Section) Heading() string {
	return s.Key + ". " + s.Title
}

type Package struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Items       []string `yaml:"items"`
	Budget      string   `yaml:"budget"`
	Target      string   `yaml:"target"`
	Image       string   `yaml:"image"`
}

// Appendix is a free-text page. Signed pages end with the department
// and the generation date.
type Appendix struct {
	Title  string   `yaml:"title"`
	Lines  []string `yaml:"lines"`
	Signed bool     `yaml:"signed"`
}

// Catalog is everything the deck shows.
type Catalog struct {
	Title        string     `yaml:"title"`
	Subtitle     string     `yaml:"subtitle"`
	Department   string     `yaml:"department"`
	Cover        string     `yaml:"cover"`
	Tags         []string   `yaml:"tags"`
	Criteria     []string   `yaml:"criteria"`
	Architecture []string   `yaml:"architecture"`
	Sections     []Section  `yaml:"sections"`
	Packages     []Package  `yaml:"packages"`
	Appendices   []Appendix `yaml:"appendices"`
}

// DefaultCatalog returns the built-in 2024 kitchen catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// DefaultCatalogYAML returns the built-in catalog source, a starting
// point for a custom catalog file.
func DefaultCatalogYAML() []byte {
	return append([]byte(nil), defaultCatalog...)
}

// ParseCatalog decodes and validates a YAML catalog. Unknown keys are
// rejected.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.UnmarshalWithOptions(data, &c, yaml.Strict()); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalog reads a catalog file. Relative image paths are resolved
// against the file's directory.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.resolveImages(filepath.Dir(path))
	return c, nil
}

func (c *Catalog) resolveImages(dir string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	abs(&c.Cover)
	for i := range c.Sections {
		abs(&c.Sections[i].Image)
		for j := range c.Sections[i].Products {
			abs(&c.Sections[i].Products[j].Image)
		}
	}
	for i := range c.Packages {
		abs(&c.Packages[i].Image)
	}
}

func (c *Catalog) Validate() error {
	if len(c.Sections) == 0 {
		return ErrNoSections
	}
	if len(c.Packages) == 0 {
		return ErrNoPackages
	}
	if len(c.Packages) > MaxPackages {
		return fmt.Errorf("procurement: %d packages, at most %d fit a page", len(c.Packages), MaxPackages)
	}
	seen := make(map[string]bool)
	for i, s := range c.Sections {
		if s.Key == "" || s.Title == "" {
			return fmt.Errorf("procurement: section %d needs a key and a title", i+1)
		}
		if seen[s.Key] {
			return fmt.Errorf("procurement: duplicate section %s", s.Key)
		}
		seen[s.Key] = true
		if n := len(s.Products); n == 0 || n > MaxProducts {
			return fmt.Errorf("procurement: section %s has %d products, want 1 to %d", s.Key, n, MaxProducts)
		}
	}
	return nil
}

// SlideCount is the number of pages Generate produces for c.
func (c *Catalog) SlideCount() int {
	return 3 + 2*len(c.Sections) + 2 + len(c.Appendices)
}
