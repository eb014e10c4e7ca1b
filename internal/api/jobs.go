package api

import (
	"net/http"
	"strings"

	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/id"
	"github.com/dunamismax/clipit/internal/queue"
)

// statusAll lifts the default "active" filter on the marketplace listing.
const statusAll = "all"

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	filter, err := s.jobFilterFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jobs, err := s.store.ListJobs(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) jobFilterFromQuery(r *http.Request) (domain.JobFilter, error) {
	q := r.URL.Query()

	page, err := pageFromQuery(r)
	if err != nil {
		return domain.JobFilter{}, err
	}
	filter := domain.JobFilter{
		Status:     domain.JobStatusActive,
		Difficulty: strings.ToLower(strings.TrimSpace(q.Get("difficulty"))),
		Search:     strings.TrimSpace(q.Get("search")),
		Page:       page,
	}

	switch status := strings.ToLower(strings.TrimSpace(q.Get("status"))); {
	case status == "":
	case status == statusAll:
		filter.Status = ""
	case domain.ValidJobStatus(status):
		filter.Status = status
	default:
		return domain.JobFilter{}, domain.Errorf(domain.ErrValidation, "Invalid status filter")
	}
	if filter.Difficulty != "" && !domain.ValidDifficulty(filter.Difficulty) {
		return domain.JobFilter{}, domain.Errorf(domain.ErrValidation, "Invalid difficulty level")
	}

	if filter.MinBudget, err = floatQuery(q.Get("minBudget"), "minBudget"); err != nil {
		return domain.JobFilter{}, err
	}
	if filter.MaxBudget, err = floatQuery(q.Get("maxBudget"), "maxBudget"); err != nil {
		return domain.JobFilter{}, err
	}

	for _, raw := range q["tags"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	switch creator := strings.TrimSpace(q.Get("creator")); {
	case creator == "":
	case creator == "me":
		userID := s.tokenSubject(r)
		if userID == "" {
			return domain.JobFilter{}, domain.Errorf(domain.ErrUnauthorized, "Access token required")
		}
		filter.CreatorID = userID
	case id.Valid(creator):
		filter.CreatorID = creator
	default:
		return domain.JobFilter{}, domain.Errorf(domain.ErrValidation, "Invalid creator filter")
	}
	return filter, nil
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "id", "Job")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detail, err := s.store.GetJobDetail(r.Context(), jobID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req domain.CreateJobRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	now := s.now()
	if err := req.Validate(now); err != nil {
		s.fail(w, r, err)
		return
	}

	job, err := s.store.CreateJob(r.Context(), req.Job(id.New(), user.ID, now))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Job created successfully",
		"job":     job,
	})
}

func (s *Server) handleUpdateJobStatus(w http.ResponseWriter, r *http.Request, user domain.User) {
	jobID, err := pathID(r, "id", "Job")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req domain.UpdateJobStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	job, err := s.store.UpdateJobStatus(r.Context(), jobID, user.ID, req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Job " + job.Status + " successfully",
		"job":     job,
	})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request, user domain.User) {
	jobID, err := pathID(r, "id", "Job")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req domain.ApplyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	now := s.now()
	app, err := s.store.CreateApplication(r.Context(), domain.Application{
		ID:               id.New(),
		JobID:            job.ID,
		ClipperID:        user.ID,
		Message:          strings.TrimSpace(req.Message),
		ProposedTimeline: strings.TrimSpace(req.ProposedTimeline),
		Status:           domain.ApplicationStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.notify(r.Context(), queue.EventApplicationCreated, job.CreatorID, map[string]string{
		"applicationId": app.ID,
		"jobId":         job.ID,
		"jobTitle":      job.Title,
		"clipperId":     user.ID,
		"clipper":       user.Username,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Application submitted successfully",
		"application": app,
	})
}

func (s *Server) handleJobApplications(w http.ResponseWriter, r *http.Request, user domain.User) {
	jobID, err := pathID(r, "id", "Job")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if job.CreatorID != user.ID {
		s.fail(w, r, domain.Errorf(domain.ErrForbidden, "Access denied"))
		return
	}

	apps, err := s.store.ListJobApplications(r.Context(), job.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleMyApplications(w http.ResponseWriter, r *http.Request, user domain.User) {
	apps, err := s.store.ListClipperApplications(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleDecideApplication(w http.ResponseWriter, r *http.Request, user domain.User) {
	appID, err := pathID(r, "id", "Application")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req domain.DecideApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	app, err := s.store.DecideApplication(r.Context(), appID, user.ID, req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.notify(r.Context(), queue.EventApplicationDecided, app.ClipperID, map[string]string{
		"applicationId": app.ID,
		"jobId":         app.JobID,
		"status":        app.Status,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Application " + app.Status + " successfully",
		"application": app,
	})
}
