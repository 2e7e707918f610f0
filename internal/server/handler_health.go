package server

import (
	"net/http"
	"runtime"
	"time"
)

// Version is the API server version reported by /health.
const Version = "0.1.0"

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	GoVersion   string `json:"go_version"`
	Uptime      string `json:"uptime"`
	Scheduler   string `json:"scheduler"`
	History     string `json:"history"`
	Subscribers int    `json:"subscribers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	sched := "stopped"
	if s.manager.SchedulerRunning() {
		sched = "running"
	}
	history := "disabled"
	if s.history != nil {
		history = "available"
	}
	respondOK(w, reqID, healthResponse{
		Status:      "healthy",
		Version:     Version,
		GoVersion:   runtime.Version(),
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
		Scheduler:   sched,
		History:     history,
		Subscribers: s.hub.Len(),
	})
}
