package webd

import (
	"encoding/json"
	"github.com/rotblauer/globe/common"
	"github.com/rotblauer/globe/metrics"
	"github.com/rotblauer/globe/params"
	"net/http"
	"time"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Config:    s.Config,
	})
}

type statsResponse struct {
	Fingerprint string              `json:"fingerprint"`
	Metrics     metrics.Snapshot    `json:"metrics"`
	FrameTimes  common.FrameSummary `json:"frame_times"`
	RecentMs    []float64           `json:"recent_ms"`
}

// recentFrames is how many frame times /stats lists.
const recentFrames = 120

func (s *WebDaemon) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, statsResponse{
		Fingerprint: s.source.Fingerprint(),
		Metrics:     s.source.Metrics().Snapshot(),
		FrameTimes:  s.source.FrameTimes().Summary(),
		RecentMs:    s.source.FrameTimes().Recent(recentFrames),
	})
}

func (s *WebDaemon) handleLastFrame(w http.ResponseWriter, r *http.Request) {
	last := s.source.LastFrame()
	if last == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, last)
}

type storeResponse struct {
	Path  string `json:"path"`
	Tiles int    `json:"tiles"`
	Bytes int64  `json:"bytes"`
}

func (s *WebDaemon) handleStore(w http.ResponseWriter, r *http.Request) {
	store := s.source.Store()
	if store == nil {
		http.Error(w, "no tile store", http.StatusNotFound)
		return
	}
	res := storeResponse{Path: store.Path()}
	err := store.ForEach(func(url string, size int) error {
		res.Tiles++
		res.Bytes += int64(size)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to scan tile store", "error", err)
		http.Error(w, "Failed to scan tile store", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, res)
}

func (s *WebDaemon) writeJSON(w http.ResponseWriter, v any) {
	j, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(j); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}
