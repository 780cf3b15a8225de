package procurement

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Sections) != 4 || len(c.Packages) != 3 || len(c.Appendices) != 3 {
		t.Fatalf("expected 4 sections, 3 packages and 3 appendices, got %d, %d and %d", len(c.Sections), len(c.Packages), len(c.Appendices))
	}
	if c.SlideCount() != 16 {
		t.Errorf("expected 16 slides, got %d", c.SlideCount())
	}
	if got := c.Sections[1].Heading(); got != "B. 智能烹饪区" {
		t.Errorf("expected %q, got %q", "B. 智能烹饪区", got)
	}
	for _, s := range c.Sections {
		if len(s.Suppliers) != 5 {
			t.Errorf("section %s: expected 5 suppliers, got %d", s.Key, len(s.Suppliers))
		}
	}
	if !c.Appendices[1].Signed {
		t.Error("expected the disclaimer to be signed")
	}
}

const smallCatalog = `title: 厨房
department: 采购部
cover: cover.png
sections:
  - key: A
    title: 烹饪
    image: a.png
    products:
      - name: 灶具
        image: /abs/stove.png
packages:
  - name: 基础包
    image: pkg/basic.png
`

func TestLoadCatalogResolvesImages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(smallCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checks := []struct{ got, want string }{
		{c.Cover, filepath.Join(dir, "cover.png")},
		{c.Sections[0].Image, filepath.Join(dir, "a.png")},
		{c.Sections[0].Products[0].Image, "/abs/stove.png"},
		{c.Packages[0].Image, filepath.Join(dir, "pkg", "basic.png")},
	}
	for _, ch := range checks {
		if ch.got != ch.want {
			t.Errorf("expected %q, got %q", ch.want, ch.got)
		}
	}
	if c.SlideCount() != 7 {
		t.Errorf("expected 7 slides, got %d", c.SlideCount())
	}
}

func TestParseCatalogErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "title: x\ncolour: red\n", "colour"},
		{"no sections", "packages: [{name: p}]\n", ErrNoSections.Error()},
		{"no packages", "sections: [{key: A, title: t, products: [{name: p}]}]\n", ErrNoPackages.Error()},
		{"no key", "sections: [{title: t, products: [{name: p}]}]\npackages: [{name: p}]\n", "key and a title"},
		{"duplicate", "sections: [{key: A, title: t, products: [{name: p}]}, {key: A, title: u, products: [{name: q}]}]\npackages: [{name: p}]\n", "duplicate section A"},
		{"no products", "sections: [{key: A, title: t}]\npackages: [{name: p}]\n", "0 products"},
		{"too many packages", "sections: [{key: A, title: t, products: [{name: p}]}]\npackages: [{name: a}, {name: b}, {name: c}, {name: d}, {name: e}]\n", "5 packages"},
	}
	for _, c := range cases {
		_, err := ParseCatalog([]byte(c.yaml))
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: expected error containing %q, got %v", c.name, c.want, err)
		}
	}

	_, err := ParseCatalog([]byte("packages: [{name: p}]\n"))
	if !errors.Is(err, ErrNoSections) {
		t.Errorf("expected ErrNoSections, got %v", err)
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}
