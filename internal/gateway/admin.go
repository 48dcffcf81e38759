package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/metoushela/megan/internal/core"
)

// handleClearHistories wipes every stored transcript. DELETE /api/histories.
func (s *Server) handleClearHistories() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if s.cfg.Store == nil {
			http.Error(w, "history store not available", http.StatusServiceUnavailable)
			return
		}

		if err := s.cfg.Store.ClearAll(); err != nil {
			s.logger.Error("history wipe failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		s.logger.Info("all histories cleared via admin endpoint")
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

// moduleJSON is a serializable module info snapshot.
type moduleJSON struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
}

// handleListModules lists all compiled modules. GET /api/modules.
func (s *Server) handleListModules() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		mods := core.GetModules()
		out := make([]moduleJSON, 0, len(mods))
		for _, m := range mods {
			out = append(out, moduleJSON{
				ID:        string(m.ID),
				Namespace: m.ID.Namespace(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
