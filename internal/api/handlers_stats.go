package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"jobs":        s.orchestrator.JobCounts(),
		"queue_depth": s.orchestrator.QueueDepth(),
	}
	if s.stats != nil {
		resp["llm"] = s.stats.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}
