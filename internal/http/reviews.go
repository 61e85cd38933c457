package http

import (
	"net/http"

	"storefront/admin/internal/events"
)

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	page, err := s.backend.ListReviews(r.Context(), parseListQuery(r))
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_review_id")
		return
	}
	review, err := s.backend.GetReview(r.Context(), id)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_review_id")
		return
	}
	if err := s.backend.DeleteReview(r.Context(), id); err != nil {
		s.backendError(w, r, err)
		return
	}
	s.emit(r, events.ReviewDeleted, "review", id, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "reviewId": id})
}
