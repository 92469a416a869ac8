package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/gateway"
)

const healthCheckTimeout = 3 * time.Second

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Devices int               `json:"devices"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// handleHealth reports "ok", or "degraded" with 503 when any check fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Version: s.version,
		Devices: s.registry.Len(),
	}

	if len(s.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp.Checks = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check.HealthCheck(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

type statsResponse struct {
	Dispatcher gateway.Stats `json:"dispatcher"`
	Devices    int           `json:"devices"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	resp := statsResponse{Devices: s.registry.Len()}
	if s.stats != nil {
		resp.Dispatcher = s.stats()
	}
	writeJSON(w, http.StatusOK, resp)
}
