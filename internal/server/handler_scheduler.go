package server

import (
	"net/http"

	"github.com/me/procsim/pkg/model"
)

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), s.manager.Status())
}

func (s *Server) handleStartScheduler(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	changed := s.manager.StartScheduler(s.baseCtx)
	respondOK(w, reqID, model.ToggleResult{Changed: changed, Running: s.manager.SchedulerRunning()})
}

func (s *Server) handleStopScheduler(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	changed := s.manager.StopScheduler()
	respondOK(w, reqID, model.ToggleResult{Changed: changed, Running: s.manager.SchedulerRunning()})
}

func (s *Server) handleSetTimeSlice(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.TimeSliceRequest
	if !decodeJSON(w, r, reqID, &req) {
		return
	}
	if !s.manager.SetTimeSlice(req.TimeSlice) {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid time slice",
				model.FieldError{Field: "time_slice", Message: "time_slice must be a positive integer"}))
		return
	}
	respondOK(w, reqID, s.manager.Status())
}
