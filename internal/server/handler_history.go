package server

import (
	"net/http"

	"github.com/me/procsim/internal/store"
	"github.com/me/procsim/pkg/model"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	if s.history == nil {
		respondError(w, reqID, http.StatusNotFound, &model.APIError{
			Code:    model.ErrNotFound,
			Message: "history journal is disabled",
		})
		return
	}

	q := store.HistoryQuery{ProcessID: r.URL.Query().Get("process_id")}
	var apiErr *model.APIError
	if q.Limit, apiErr = queryInt(r, "limit", 0); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	after, apiErr := queryInt(r, "after", 0)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	q.AfterSeq = int64(after)
	q.Clamp()

	entries, err := s.history.ListHistory(r.Context(), q)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondList(w, reqID, entries, &model.Pagination{
		Total:   len(entries),
		Limit:   q.Limit,
		Offset:  0,
		HasMore: len(entries) == q.Limit,
	})
}
