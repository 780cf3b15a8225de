package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gemdale/reportkit/internal/config"
	"github.com/gemdale/reportkit/internal/llm"
	"github.com/gemdale/reportkit/internal/pipeline"
	"github.com/gemdale/reportkit/internal/workspace"
)

// logLines decodes the JSON log records written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func requestLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	for _, m := range logLines(t, buf) {
		if m["msg"] == "request" {
			return m
		}
	}
	t.Fatalf("no request log line in %s", buf.String())
	return nil
}

func TestRequestLoggerRouteFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	cfg := config.Config{
		WorkRoot:       t.TempDir(),
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
	orch := pipeline.NewOrchestrator(cfg, pipeline.NewRunner(cfg, log), log)
	s := NewServer(orch, llm.NewStats(time.Hour), log, cfg)

	ws, err := workspace.Parse(cfg.WorkRoot, "泗泾", "20250101")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(ws.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}

	rec := do(t, s, http.MethodPost, "/api/projects/"+url.PathEscape("泗泾")+"/runs?date=20250101", nil, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := decode(t, rec)["job_id"].(string)

	entry := requestLog(t, &buf)
	if entry["route"] != "/api/projects/{project}/runs" {
		t.Errorf("expected route pattern, got %v", entry["route"])
	}
	if entry["project"] != "泗泾" {
		t.Errorf("expected project %q, got %v", "泗泾", entry["project"])
	}
	if entry["job_id"] != id {
		t.Errorf("expected job_id %q, got %v", id, entry["job_id"])
	}
	if entry["status"] != float64(http.StatusAccepted) {
		t.Errorf("expected status 202, got %v", entry["status"])
	}
	if entry["bytes"] != float64(rec.Body.Len()) {
		t.Errorf("expected bytes %d, got %v", rec.Body.Len(), entry["bytes"])
	}

	buf.Reset()
	do(t, s, http.MethodGet, "/api/jobs/"+id, nil, "")
	entry = requestLog(t, &buf)
	if entry["route"] != "/api/jobs/{jobID}" || entry["job_id"] != id {
		t.Errorf("expected job route and id, got %v", entry)
	}
	if _, ok := entry["project"]; ok {
		t.Errorf("expected no project on job lookup, got %v", entry["project"])
	}
}

func TestRequestLoggerErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		annotate(r, "stage", "supply")
		jsonError(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	entry := requestLog(t, &buf)
	if entry["level"] != "ERROR" {
		t.Errorf("expected ERROR level, got %v", entry["level"])
	}
	if entry["stage"] != "supply" {
		t.Errorf("expected annotated stage, got %v", entry["stage"])
	}
	if _, ok := entry["route"]; ok {
		t.Errorf("expected no route outside a chi router, got %v", entry["route"])
	}
}

func TestAnnotateWithoutLogger(t *testing.T) {
	// Must not panic when RequestLogger is not in the chain.
	annotate(httptest.NewRequest(http.MethodGet, "/", nil), "k", "v")
}
