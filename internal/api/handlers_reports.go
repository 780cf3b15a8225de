package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gemdale/reportkit/internal/pipeline"
	"github.com/gemdale/reportkit/internal/report"
	"github.com/gemdale/reportkit/internal/site"
)

var reportExts = map[string]bool{".md": true, ".markdown": true, ".docx": true}

func (s *Server) handleParseReport(w http.ResponseWriter, r *http.Request) {
	dir, path, ok := s.receiveReport(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()
	defer os.RemoveAll(dir)

	rep, err := report.NewParser(path, "").Parse()
	if err != nil {
		reportError(w, err)
		return
	}
	report.Enrich(rep)

	data, err := report.Marshal(rep)
	if err != nil {
		jsonError(w, "failed to encode report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	dir, path, ok := s.receiveReport(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()
	defer os.RemoveAll(dir)

	id := pipeline.NewID()
	out := filepath.Join(s.SitesDir(), id)
	rep, err := site.BuildFromMarkdown(path, site.Options{
		OutputDir: out,
		Project:   strings.TrimSpace(r.FormValue("project")),
		Log:       s.log,
	})
	if err != nil {
		os.RemoveAll(out)
		reportError(w, err)
		return
	}

	annotate(r, "site_id", id)
	writeJSON(w, http.StatusCreated, map[string]any{
		"site_id":  id,
		"title":    site.Title(rep),
		"sections": rep.SectionCount(),
		"url":      "/sites/" + id + "/",
	})
}

// receiveReport stores the uploaded "file" field in a fresh temp
// directory. On failure the error response has already been written.
func (s *Server) receiveReport(w http.ResponseWriter, r *http.Request) (dir, path string, ok bool) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return "", "", false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", "", false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !reportExts[strings.ToLower(filepath.Ext(filename))] {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", "", false
	}

	dir, err = os.MkdirTemp("", "reportkit-upload-*")
	if err != nil {
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return "", "", false
	}
	path = filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		os.RemoveAll(dir)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return "", "", false
	}
	n, err := io.Copy(f, io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	f.Close()
	if err != nil {
		os.RemoveAll(dir)
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", "", false
	}
	if n > s.cfg.MaxUploadBytes {
		os.RemoveAll(dir)
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", "", false
	}
	return dir, path, true
}

func reportError(w http.ResponseWriter, err error) {
	if errors.Is(err, report.ErrNoParts) {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
