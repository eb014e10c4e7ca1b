package domain

import (
	"strings"
	"time"
)

const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusAccepted = "accepted"
	ApplicationStatusRejected = "rejected"
)

type Application struct {
	ID               string    `json:"id"`
	JobID            string    `json:"jobId"`
	ClipperID        string    `json:"clipperId"`
	Message          string    `json:"message"`
	ProposedTimeline string    `json:"proposedTimeline,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Applicant struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Avatar    string  `json:"avatar,omitempty"`
	Rating    float64 `json:"rating"`
}

// JobApplication is an application as the job's creator sees it.
type JobApplication struct {
	Application
	Clipper Applicant `json:"clipper"`
}

// ClipperApplication is an application as the applying clipper sees it.
type ClipperApplication struct {
	Application
	JobTitle  string `json:"jobTitle"`
	JobStatus string `json:"jobStatus"`
}

type ApplyRequest struct {
	Message          string `json:"message"`
	ProposedTimeline string `json:"proposedTimeline"`
}

func (r ApplyRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return validationError("Application message is required")
	}
	return checkLength("proposedTimeline", r.ProposedTimeline, 100)
}

type DecideApplicationRequest struct {
	Status string `json:"status"`
}

func (r DecideApplicationRequest) Validate() error {
	if r.Status != ApplicationStatusAccepted && r.Status != ApplicationStatusRejected {
		return validationError("Valid status required (accepted/rejected)")
	}
	return nil
}

// CheckCanApply enforces that only active jobs take applications.
func CheckCanApply(job Job) error {
	if !JobAcceptsApplications(job.Status) {
		return Errorf(ErrInvalidState, "Job is not accepting applications")
	}
	return nil
}

// CheckApplicationDecision enforces who may decide an application and when.
func CheckApplicationDecision(app Application, job Job, actorID string) error {
	if job.CreatorID != actorID {
		return Errorf(ErrForbidden, "Access denied")
	}
	if app.Status != ApplicationStatusPending {
		return Errorf(ErrInvalidState, "Can only decide pending applications")
	}
	if !JobAcceptsClips(job.Status) {
		return Errorf(ErrInvalidState, "Job is no longer open")
	}
	return nil
}
