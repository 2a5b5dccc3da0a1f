package api

import (
	"encoding/json"
	"net/http"
	"time"

	"portolan/diagram"
	"portolan/internal/support/buildinfo"
)

// notReady is served on pull endpoints before the first collection has
// been published.
var notReady = map[string]string{"error": "Not ready"}

func (s *Server) handleNetworkData(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.source.Current()
	if !ok {
		s.writeJSON(w, http.StatusOK, notReady)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePlantUML(w http.ResponseWriter, r *http.Request) {
	text := diagram.NotReady()
	if snap, ok := s.source.Current(); ok {
		text = diagram.PlantUML(snap)
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"plantuml": text})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.refresher.Refresh(r.Context())
	if err != nil {
		http.Error(w, "refresh interrupted", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

type clockHealth struct {
	Phase   string `json:"phase"`
	Offset  string `json:"offset,omitempty"`
	Error   string `json:"error,omitempty"`
	Checked string `json:"checked_at,omitempty"`
}

type cycleHealth struct {
	Phase     string `json:"phase"`
	Completed string `json:"completed_at,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Age       string `json:"age,omitempty"`
	Cycles    uint64 `json:"cycles"`
}

type healthResponse struct {
	Status          string       `json:"status"`
	Version         string       `json:"version"`
	Uptime          string       `json:"uptime"`
	Ready           bool         `json:"ready"`
	DockerAvailable bool         `json:"docker_available"`
	Observers       int          `json:"observers"`
	Clock           *clockHealth `json:"clock,omitempty"`
	LastCycle       *cycleHealth `json:"last_cycle,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Version:   buildinfo.Version,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Observers: s.hub.Observers(),
	}
	if snap, ok := s.source.Current(); ok {
		resp.Ready = true
		resp.DockerAvailable = snap.DockerAvailable
	}
	if s.clock != nil {
		status := s.clock.Status()
		resp.Clock = &clockHealth{Phase: status.Phase.String()}
		if status.Offset != 0 {
			resp.Clock.Offset = status.Offset.String()
		}
		resp.Clock.Error = status.Error
		if !status.CheckedAt.IsZero() {
			resp.Clock.Checked = status.CheckedAt.Format(time.RFC3339)
		}
	}
	if s.cycles != nil {
		report := s.cycles.Report()
		resp.LastCycle = &cycleHealth{
			Phase:  report.Phase.String(),
			Cycles: report.Cycles,
		}
		if !report.LastAt.IsZero() {
			resp.LastCycle.Completed = report.LastAt.Format(time.RFC3339)
			resp.LastCycle.Duration = report.Duration.String()
			resp.LastCycle.Age = report.Age.Round(time.Millisecond).String()
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("write response", "err", err)
	}
}
