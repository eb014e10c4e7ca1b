package api

import (
	"net/http"
	"strings"

	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/id"
)

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req domain.CreateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if !id.Valid(strings.TrimSpace(req.JobID)) {
		s.fail(w, r, domain.Errorf(domain.ErrNotFound, "Job not found"))
		return
	}
	if !id.Valid(strings.TrimSpace(req.RevieweeID)) {
		s.fail(w, r, domain.Errorf(domain.ErrNotFound, "User not found"))
		return
	}

	now := s.now()
	review, err := s.store.CreateReview(r.Context(), domain.Review{
		ID:         id.New(),
		ReviewerID: user.ID,
		RevieweeID: strings.TrimSpace(req.RevieweeID),
		JobID:      strings.TrimSpace(req.JobID),
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Review submitted successfully",
		"review":  review,
	})
}
