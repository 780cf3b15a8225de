// Package officepdf converts PowerPoint decks to PDF with a headless
// LibreOffice.
package officepdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when no LibreOffice binary can be located.
var ErrNotFound = errors.New("libreoffice not found")

// ErrUnsupported is returned for inputs that are not PowerPoint decks.
var ErrUnsupported = errors.New("unsupported file type")

var candidates = []string{"soffice", "libreoffice", "loffice"}

const (
	versionTimeout   = 5 * time.Second
	convertTimeout = 5 * time.Minute
)

type Converter struct {
	bin string
	log *slog.Logger
}

// NewConverter returns a converter using path, or the first LibreOffice
// binary on PATH that answers --version.
func NewConverter(path string, log *slog.Logger) (*Converter, error) {
	if log == nil {
		log = slog.Default()
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return &Converter{bin: path, log: log}, nil
	}
	for _, name := range candidates {
		if answersVersion(name) {
			log.Debug("libreoffice found", "binary", name)
			return &Converter{bin: name, log: log}, nil
		}
	}
	return nil, ErrNotFound
}

func answersVersion(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, "--version").Run() == nil
}

// Binary returns the LibreOffice executable in use.
func (c *Converter) Binary() string { return c.bin }

// ConvertFile converts one deck into outDir and returns the PDF path.
// An empty outDir writes next to the input.
func (c *Converter) ConvertFile(ctx context.Context, in, outDir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(in))
	if ext != ".pptx" && ext != ".pptm" {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, in)
	}
	if _, err := os.Stat(in); err != nil {
		return "", fmt.Errorf("input: %w", err)
	}
	if outDir == "" {
		outDir = filepath.Dir(in)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, convertTimeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, c.bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, in)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("convert %s: %s", filepath.Base(in), msg)
	}

	out := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))+".pdf")
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("convert %s: pdf not produced", filepath.Base(in))
	}
	c.log.Info("pptx converted", "input", in, "output", out, "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// ConvertBatch converts every .pptx directly inside dir. Files that fail
// are logged and skipped.
func (c *Converter) ConvertBatch(ctx context.Context, dir, outDir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var inputs []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pptx") {
			inputs = append(inputs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(inputs)

	var outs []string
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return outs, err
		}
		out, err := c.ConvertFile(ctx, in, outDir)
		if err != nil {
			c.log.Warn("pptx conversion failed", "input", in, "error", err)
			continue
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// ConvertRecursive converts every .pptx under root, mirroring the
// relative directory layout below outBase.
func (c *Converter) ConvertRecursive(ctx context.Context, root, outBase string) ([]string, error) {
	var outs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pptx") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		out, err := c.ConvertFile(ctx, path, filepath.Join(outBase, rel))
		if err != nil {
			c.log.Warn("pptx conversion failed", "input", path, "error", err)
			return nil
		}
		outs = append(outs, out)
		return nil
	})
	return outs, err
}
