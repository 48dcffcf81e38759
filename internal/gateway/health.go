package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Continuations int    `json:"continuations"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if !s.startedAt.IsZero() {
			resp.UptimeSeconds = int64(time.Since(s.startedAt) / time.Second)
		}
		if s.cfg.Continuations != nil {
			resp.Continuations = s.cfg.Continuations.Len()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
