package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/me/procsim/pkg/model"
)

// maxSpawn bounds POST /processes/random.
const maxSpawn = 100

func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts := model.DefaultListOptions()
	if raw := r.URL.Query().Get("state"); raw != "" {
		st, ok := model.ParseProcessState(raw)
		if !ok {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid query parameter",
					model.FieldError{Field: "state", Message: "unknown state " + raw}))
			return
		}
		opts.State = st
	}
	var apiErr *model.APIError
	if opts.Limit, apiErr = queryInt(r, "limit", opts.Limit); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	if opts.Offset, apiErr = queryInt(r, "offset", opts.Offset); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	page, pg := opts.Page(s.manager.GetAllProcesses())
	respondList(w, reqID, page, pg)
}

func (s *Server) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.CreateProcessRequest
	if !decodeJSON(w, r, reqID, &req) {
		return
	}

	var details []model.FieldError
	name := strings.TrimSpace(req.Name)
	if name == "" {
		details = append(details, model.FieldError{Field: "name", Message: "name is required"})
	}
	prio, ok := model.ParsePriority(req.Priority)
	if !ok {
		details = append(details, model.FieldError{Field: "priority", Message: "priority must be HIGH, MEDIUM or LOW"})
	}
	if req.BurstTime != nil && *req.BurstTime <= 0 {
		details = append(details, model.FieldError{Field: "burst_time", Message: "burst_time must be positive"})
	}
	if len(details) > 0 {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid process", details...))
		return
	}

	var id string
	if req.BurstTime != nil {
		id, ok = s.manager.CreateProcessWithBurst(name, prio, *req.BurstTime)
	} else {
		id, ok = s.manager.CreateProcess(name, prio)
	}
	if !ok {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("process rejected"))
		return
	}
	p, _ := s.manager.GetProcess(id)
	respondCreated(w, reqID, p)
}

func (s *Server) handleSpawnProcesses(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.SpawnRequest
	if !decodeJSON(w, r, reqID, &req) {
		return
	}
	if req.Count < 1 || req.Count > maxSpawn {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid count",
				model.FieldError{Field: "count", Message: "count must be between 1 and 100"}))
		return
	}

	ids := s.manager.SpawnRandom(req.Count)
	procs := make([]model.Process, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.manager.GetProcess(id); ok {
			procs = append(procs, p)
		}
	}
	s.logger.Info("processes spawned", "count", len(procs))
	respondCreated(w, reqID, procs)
}

func (s *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	p, ok := s.manager.GetProcess(id)
	if !ok {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("process", id))
		return
	}
	respondOK(w, reqID, p)
}

func (s *Server) handleSetProcessState(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req model.SetStateRequest
	if !decodeJSON(w, r, reqID, &req) {
		return
	}
	target, ok := model.ParseProcessState(req.State)
	if !ok {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid state",
				model.FieldError{Field: "state", Message: "state must be READY, RUNNING, WAITING or TERMINATED"}))
		return
	}

	if err := s.manager.ForceState(id, target); err != nil {
		respondErr(w, reqID, err)
		return
	}
	p, _ := s.manager.GetProcess(id)
	respondOK(w, reqID, p)
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), s.manager.GetCounts())
}
