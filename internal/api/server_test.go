package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
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

const sampleReport = `松江区泗泾04-08号地块
# PART1 项目概况
# 01 区位分析
项目位于松江区核心板块，交通优势明显。
- 地铁9号线
# PART4 设计方案
# 1.2 方案对比
方案一 采用高层布局
`

func newTestServer(t *testing.T, apiKey string) (*Server, config.Config) {
	t.Helper()
	cfg := config.Config{
		APIKey:         apiKey,
		WorkRoot:       t.TempDir(),
		WorkerCount:    1,
		MaxQueueSize:   1,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
	// Workers are not started, so submitted jobs stay queued.
	orch := pipeline.NewOrchestrator(cfg, pipeline.NewRunner(cfg, nil), nil)
	return NewServer(orch, llm.NewStats(time.Hour), nil, cfg), cfg
}

func do(t *testing.T, s *Server, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	rec := do(t, s, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode(t, rec)["status"]; got != "ok" {
		t.Errorf("expected status %q, got %v", "ok", got)
	}
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, "secret")

	rec := do(t, s, http.MethodGet, "/api/jobs", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "missing authorization" {
		t.Errorf("expected %q, got %v", "missing authorization", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	s, _ := newTestServer(t, "")
	if rec := do(t, s, http.MethodGet, "/api/jobs", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200 without configured key, got %d", rec.Code)
	}
}

func TestCreateRun(t *testing.T) {
	s, cfg := newTestServer(t, "")
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
	body := decode(t, rec)
	if body["project"] != "泗泾" || body["date"] != "20250101" || body["status"] != "queued" {
		t.Errorf("unexpected body %v", body)
	}
	id, _ := body["job_id"].(string)

	rec = do(t, s, http.MethodGet, "/api/jobs/"+id, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode(t, rec)["job_id"]; got != id {
		t.Errorf("expected job %q, got %v", id, got)
	}

	// The queue holds one job.
	rec = do(t, s, http.MethodPost, "/api/projects/"+url.PathEscape("泗泾")+"/runs?date=20250101", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 on full queue, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/jobs", nil, "")
	var list struct {
		Jobs []pipeline.JobSnapshot `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(list.Jobs))
	}
}

func TestCreateRunErrors(t *testing.T) {
	s, _ := newTestServer(t, "")
	tests := []struct {
		target string
		code   int
	}{
		{"/api/projects/x/runs?date=2025-01-01", http.StatusBadRequest},
		{"/api/projects/" + url.PathEscape("..") + "/runs", http.StatusBadRequest},
		{"/api/projects/missing/runs?date=20250101", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := do(t, s, http.MethodPost, tt.target, nil, "")
		if rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.target, tt.code, rec.Code)
		}
		if _, ok := decode(t, rec)["error"]; !ok {
			t.Errorf("%s: expected error body", tt.target)
		}
	}
}

func TestGetJobNotFound(t *testing.T) {
	s, _ := newTestServer(t, "")
	if rec := do(t, s, http.MethodGet, "/api/jobs/nope", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t, "")
	s.stats.Record(200*time.Millisecond, 10, 5)
	rec := do(t, s, http.MethodGet, "/api/stats", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	for _, k := range []string{"llm", "jobs", "queue_depth"} {
		if _, ok := body[k]; !ok {
			t.Errorf("expected %q in stats", k)
		}
	}
}

func TestParseReport(t *testing.T) {
	s, _ := newTestServer(t, "")
	body, ct := upload(t, "full.md", sampleReport, nil)
	rec := do(t, s, http.MethodPost, "/api/reports/parse", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var rep struct {
		Meta struct {
			Title string `json:"title"`
		} `json:"meta"`
		Parts []struct {
			PartID string `json:"part_id"`
		} `json:"parts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if len(rep.Parts) != 2 || rep.Parts[0].PartID != "part1" {
		t.Errorf("unexpected parts %+v", rep.Parts)
	}
}

func TestParseReportRejects(t *testing.T) {
	s, _ := newTestServer(t, "")

	body, ct := upload(t, "notes.pdf", "x", nil)
	if rec := do(t, s, http.MethodPost, "/api/reports/parse", body, ct); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for pdf, got %d", rec.Code)
	}

	body, ct = upload(t, "full.md", "no parts here\n", nil)
	if rec := do(t, s, http.MethodPost, "/api/reports/parse", body, ct); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for report without parts, got %d", rec.Code)
	}

	s.cfg.MaxUploadBytes = 8
	body, ct = upload(t, "full.md", sampleReport, nil)
	if rec := do(t, s, http.MethodPost, "/api/reports/parse", body, ct); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for oversized upload, got %d", rec.Code)
	}
}

func TestCreateSite(t *testing.T) {
	s, _ := newTestServer(t, "")
	body, ct := upload(t, "full.md", sampleReport, map[string]string{"project": "泗泾项目"})
	rec := do(t, s, http.MethodPost, "/api/sites", body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if resp["title"] != "泗泾项目 - 金地集团投资部" {
		t.Errorf("unexpected title %v", resp["title"])
	}
	siteURL, _ := resp["url"].(string)

	rec = do(t, s, http.MethodGet, siteURL, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected generated site to be served, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "区位分析") {
		t.Error("expected served page to contain the section title")
	}
}
