package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-presence/internal/journal"
	"github.com/nerrad567/gray-logic-presence/internal/presence"
)

type deviceListResponse struct {
	Devices []presence.View `json:"devices"`
	Count   int             `json:"count"`
}

type historyResponse struct {
	HostName string          `json:"host_name"`
	Entries  []journal.Entry `json:"entries"`
}

// handleListDevices returns a snapshot of every open device, sorted by host name.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	views := s.registry.List()
	if views == nil {
		views = []presence.View{}
	}
	writeJSON(w, http.StatusOK, deviceListResponse{Devices: views, Count: len(views)})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	view, ok := s.registry.Get(host)
	if !ok {
		writeNotFound(w, "device not registered: "+host)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleDeviceHistory returns journaled signals for a host, newest first.
// History is kept for hosts that have since closed, so no registry lookup.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "signal journal is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	host := chi.URLParam(r, "host")
	entries, err := s.history.History(r.Context(), host, limit)
	if err != nil {
		s.logger.Error("reading signal journal", "host_name", host, "error", err)
		writeInternalError(w, "failed to read signal journal")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{HostName: host, Entries: entries})
}
