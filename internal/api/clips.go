package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/id"
	"github.com/dunamismax/clipit/internal/queue"
	"github.com/dunamismax/clipit/internal/storage"
)

func (s *Server) handleJobClips(w http.ResponseWriter, r *http.Request, user domain.User) {
	jobID, err := pathID(r, "jobId", "Job")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	clipperID := user.ID
	if job.CreatorID == user.ID {
		clipperID = ""
	}
	clips, err := s.store.ListJobClips(r.Context(), job.ID, clipperID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clips)
}

func (s *Server) handleMyClips(w http.ResponseWriter, r *http.Request, user domain.User) {
	page, err := pageFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	clips, err := s.store.ListClipperClips(r.Context(), domain.ClipFilter{
		ClipperID: user.ID,
		Status:    strings.TrimSpace(q.Get("status")),
		Platform:  strings.TrimSpace(q.Get("platform")),
		Page:      page,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clips)
}

func (s *Server) handleSubmitClip(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req domain.SubmitClipRequest
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

	thumbnailKey := strings.TrimSpace(req.ThumbnailKey)
	if thumbnailKey != "" {
		if err := s.checkThumbnailUpload(r, user.ID, thumbnailKey); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	clip, err := s.store.SubmitClip(r.Context(), req.Clip(id.New(), user.ID, s.now()))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if thumbnailKey != "" {
		s.enqueueThumbnail(r.Context(), clip.ID, thumbnailKey)
	}
	if job, err := s.store.GetJob(r.Context(), clip.JobID); err == nil {
		s.notify(r.Context(), queue.EventClipSubmitted, job.CreatorID, map[string]string{
			"clipId":    clip.ID,
			"jobId":     job.ID,
			"jobTitle":  job.Title,
			"title":     clip.Title,
			"clipperId": user.ID,
		})
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Clip submitted successfully",
		"clip":    clip,
	})
}

// checkThumbnailUpload requires key to be one of the caller's own thumbnail
// uploads that has actually landed in the bucket.
func (s *Server) checkThumbnailUpload(r *http.Request, userID, key string) error {
	if !storage.OwnedUpload(userID, storage.KindThumbnail, key) {
		return domain.Errorf(domain.ErrValidation, "thumbnailKey must reference one of your thumbnail uploads")
	}
	exists, err := s.storage.ObjectExists(r.Context(), key)
	if err != nil {
		return err
	}
	if !exists {
		return domain.Errorf(domain.ErrConflict, "Thumbnail upload not found: %s", key)
	}
	return nil
}

func (s *Server) handleReviewClip(w http.ResponseWriter, r *http.Request, user domain.User) {
	clipID, err := pathID(r, "id", "Clip")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req domain.ReviewClipRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	clip, err := s.store.ReviewClip(r.Context(), clipID, user.ID, req.Status, strings.TrimSpace(req.Feedback))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.notify(r.Context(), queue.EventClipReviewed, clip.ClipperID, map[string]string{
		"clipId":   clip.ID,
		"jobId":    clip.JobID,
		"status":   clip.Status,
		"feedback": clip.Feedback,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Clip " + clip.Status + " successfully",
		"clip":    clip,
	})
}

func (s *Server) handleClipPerformance(w http.ResponseWriter, r *http.Request, user domain.User) {
	clipID, err := pathID(r, "id", "Clip")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var perf domain.ClipPerformance
	if err := decodeJSON(r, &perf); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := perf.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	clip, err := s.store.UpdateClipPerformance(r.Context(), clipID, user.ID, perf)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Clip performance updated successfully",
		"clip":    clip,
	})
}

func (s *Server) handlePublishClip(w http.ResponseWriter, r *http.Request, user domain.User) {
	clipID, err := pathID(r, "id", "Clip")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req domain.PublishClipRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	clip, err := s.store.PublishClip(r.Context(), clipID, user.ID, strings.TrimSpace(req.Platform))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Clip is now live",
		"clip":    clip,
	})
}

type uploadRequest struct {
	Kind        string `json:"kind"`
	ContentType string `json:"contentType"`
}

func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req uploadRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))

	upload, err := s.storage.PresignUpload(r.Context(), user.ID, kind, contentType, s.presignTTL)
	if errors.Is(err, storage.ErrUnsupportedContentType) {
		s.fail(w, r, domain.Errorf(domain.ErrValidation, "%s", err.Error()))
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}
