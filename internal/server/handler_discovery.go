package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "procsim API",
		Version:     "v1",
		Description: "Process scheduling simulator: create processes, force state changes and drive the scheduling loop",
		Endpoints: []endpointInfo{
			{"/api/v1/processes", []string{"GET", "POST"}, "List processes (?state=&limit=&offset=) or create one"},
			{"/api/v1/processes/random", []string{"POST"}, "Create a batch of processes with random priority and burst"},
			{"/api/v1/processes/{id}", []string{"GET"}, "Single process snapshot"},
			{"/api/v1/processes/{id}/state", []string{"PUT"}, "Force a process into a state"},
			{"/api/v1/counts", []string{"GET"}, "Total and per-state process counts"},
			{"/api/v1/scheduler", []string{"GET"}, "Scheduler status and queue membership"},
			{"/api/v1/scheduler/start", []string{"POST"}, "Start the scheduling loop"},
			{"/api/v1/scheduler/stop", []string{"POST"}, "Stop the scheduling loop"},
			{"/api/v1/scheduler/time-slice", []string{"PUT"}, "Set units executed per iteration"},
			{"/api/v1/history", []string{"GET"}, "Observed state-change journal (?process_id=&limit=&after=)"},
			{"/api/v1/sse/events", []string{"GET"}, "Server-Sent Events stream of snapshots"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
