package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gemdale/reportkit/internal/pipeline"
	"github.com/gemdale/reportkit/internal/workspace"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	project, err := url.PathUnescape(chi.URLParam(r, "project"))
	if err != nil {
		jsonError(w, "invalid project", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format(workspace.DateLayout)
	}

	ws, err := workspace.Parse(s.cfg.WorkRoot, project, date)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(ws.Dir()); err != nil {
		jsonError(w, fmt.Sprintf("workspace %s not found", ws.Dir()), http.StatusNotFound)
		return
	}

	job := pipeline.NewJob(ws.Project, date)
	if err := s.orchestrator.Submit(job); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrQueueFull) {
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}

	snap := job.Snapshot()
	annotate(r, "job_id", snap.ID, "date", snap.Date)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"project":  snap.Project,
		"date":     snap.Date,
		"status":   snap.Status,
		"poll_url": "/api/jobs/" + snap.ID,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.orchestrator.Jobs()})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
