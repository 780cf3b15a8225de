package mineru

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const downloadAttempts = 3

// Download streams url into dst through dst.part, renaming on success.
// It tries three times, pausing downloadDelay × attempt after a failure.
func (c *Client) Download(ctx context.Context, url, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		if lastErr = c.downloadOnce(ctx, url, dst); lastErr == nil {
			return nil
		}
		c.log.Warn("mineru download failed", "url", url, "attempt", attempt, "error", lastErr)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < downloadAttempts {
			if err := sleep(ctx, c.downloadDelay*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("download %s: %w", url, lastErr)
}

func (c *Client) downloadOnce(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

// ExtractArchive copies full.md and every file under an image or images
// directory from a MinerU result archive into outDir.
func ExtractArchive(zipPath, outDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		rel, ok := archiveTarget(f.Name)
		if !ok {
			continue
		}
		target := filepath.Join(outDir, filepath.FromSlash(rel))
		if !within(outDir, target) {
			return fmt.Errorf("archive entry %q escapes %s", f.Name, outDir)
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

// archiveTarget maps an archive entry to its relative output path.
func archiveTarget(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.EqualFold(path.Base(name), "full.md") {
		return "full.md", true
	}
	parts := strings.Split(name, "/")
	for _, key := range []string{"image", "images"} {
		for i, p := range parts {
			if strings.EqualFold(p, key) {
				return strings.Join(parts[i:], "/"), true
			}
		}
	}
	return "", false
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// ParseAndExtract runs one PDF through upload, poll, download and extract.
// It returns saveRoot/{stem}.
func (c *Client) ParseAndExtract(ctx context.Context, pdfPath, saveRoot string) (string, error) {
	c.log.Info("mineru parse started", "file", pdfPath)
	batchID, err := c.Upload(ctx, []string{pdfPath})
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	urls, err := c.Poll(ctx, batchID)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 || urls[0] == "" {
		return "", fmt.Errorf("mineru: batch %s returned no archive", batchID)
	}
	return c.fetch(ctx, urls[0], filepath.Base(pdfPath), saveRoot, nil)
}

// ProcessDirectory parses every *.pdf in dir as one batch and returns the
// output directories in file order.
func (c *Client) ProcessDirectory(ctx context.Context, dir, saveRoot string) ([]string, error) {
	pdfs, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, err
	}
	if len(pdfs) == 0 {
		c.log.Warn("no pdf files in directory", "dir", dir)
		return nil, nil
	}

	batchID, err := c.Upload(ctx, pdfs)
	if err != nil {
		return nil, fmt.Errorf("batch upload: %w", err)
	}
	urls, err := c.Poll(ctx, batchID)
	if err != nil {
		return nil, err
	}

	cache := map[string]string{}
	var out []string
	for i, u := range urls {
		if i >= len(pdfs) {
			break
		}
		dirOut, err := c.fetch(ctx, u, filepath.Base(pdfs[i]), saveRoot, cache)
		if err != nil {
			return out, err
		}
		out = append(out, dirOut)
	}
	return out, nil
}

// fetch downloads an archive into saveRoot/_zip_cache, reusing a cached
// download of the same URL, and extracts it into saveRoot/{stem}.
func (c *Client) fetch(ctx context.Context, url, fileName, saveRoot string, cache map[string]string) (string, error) {
	s := stem(fileName)
	outDir := filepath.Join(saveRoot, s)

	zipPath, ok := cache[url]
	if ok {
		if _, err := os.Stat(zipPath); err != nil {
			ok = false
		}
	}
	if !ok {
		zipPath = filepath.Join(saveRoot, "_zip_cache", s+".zip")
		if err := c.Download(ctx, url, zipPath); err != nil {
			return "", err
		}
		if cache != nil {
			cache[url] = zipPath
		}
	}

	if err := ExtractArchive(zipPath, outDir); err != nil {
		return "", err
	}
	c.log.Info("mineru output ready", "dir", outDir)
	return outDir, nil
}
