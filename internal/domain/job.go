package domain

import (
	"strings"
	"time"
)

const (
	JobStatusActive     = "active"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"

	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	DefaultMaxClips = 5
)

type Job struct {
	ID            string    `json:"id"`
	CreatorID     string    `json:"creatorId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	VideoURL      string    `json:"videoUrl"`
	VideoDuration int       `json:"videoDuration"`
	Budget        float64   `json:"budget"`
	Deadline      time.Time `json:"deadline"`
	Difficulty    string    `json:"difficulty"`
	Tags          []string  `json:"tags"`
	Status        string    `json:"status"`
	Requirements  string    `json:"requirements,omitempty"`
	MaxClips      int       `json:"maxClips"`
	AverageViews  string    `json:"averageViews,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// JobSummary is one row of the marketplace listing.
type JobSummary struct {
	Job
	CreatorUsername  string `json:"creatorUsername"`
	CreatorAvatar    string `json:"creatorAvatar,omitempty"`
	ApplicationCount int    `json:"applicationCount"`
}

type JobCreator struct {
	Username  string  `json:"username"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Avatar    string  `json:"avatar,omitempty"`
	Rating    float64 `json:"rating"`
}

type JobDetail struct {
	Job
	Creator          JobCreator `json:"creator"`
	ApplicationCount int        `json:"applicationCount"`
}

// JobFilter narrows the marketplace listing. Zero values mean "any".
type JobFilter struct {
	Status     string
	Difficulty string
	MinBudget  *float64
	MaxBudget  *float64
	Tags       []string
	Search     string
	CreatorID  string
	Page       Page
}

func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

func ValidJobStatus(s string) bool {
	switch s {
	case JobStatusActive, JobStatusInProgress, JobStatusCompleted, JobStatusCancelled:
		return true
	default:
		return false
	}
}

type CreateJobRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	VideoURL      string    `json:"videoUrl"`
	VideoDuration int       `json:"videoDuration"`
	Budget        float64   `json:"budget"`
	Deadline      time.Time `json:"deadline"`
	Difficulty    string    `json:"difficulty"`
	Tags          []string  `json:"tags"`
	Requirements  string    `json:"requirements"`
	MaxClips      *int      `json:"maxClips"`
	AverageViews  string    `json:"averageViews"`
}

func (r CreateJobRequest) Validate(now time.Time) error {
	if strings.TrimSpace(r.Title) == "" ||
		strings.TrimSpace(r.Description) == "" ||
		strings.TrimSpace(r.VideoURL) == "" ||
		r.VideoDuration == 0 ||
		r.Budget == 0 ||
		r.Deadline.IsZero() ||
		strings.TrimSpace(r.Difficulty) == "" {
		return validationError("Missing required fields")
	}
	if !ValidDifficulty(strings.ToLower(strings.TrimSpace(r.Difficulty))) {
		return validationError("Invalid difficulty level")
	}
	if r.VideoDuration < 0 {
		return validationError("videoDuration must be positive")
	}
	if err := checkMaxInt("videoDuration", r.VideoDuration); err != nil {
		return err
	}
	if err := checkAmount("budget", r.Budget); err != nil {
		return err
	}
	if !r.Deadline.After(now) {
		return validationError("deadline must be in the future")
	}
	if r.MaxClips != nil {
		if *r.MaxClips < 1 {
			return validationError("maxClips must be at least 1")
		}
		if err := checkMaxInt("maxClips", *r.MaxClips); err != nil {
			return err
		}
	}
	if err := checkLength("title", r.Title, 255); err != nil {
		return err
	}
	return checkLength("averageViews", r.AverageViews, 50)
}

// Job builds the job row a valid request describes.
func (r CreateJobRequest) Job(id, creatorID string, now time.Time) Job {
	maxClips := DefaultMaxClips
	if r.MaxClips != nil {
		maxClips = *r.MaxClips
	}

	tags := make([]string, 0, len(r.Tags))
	for _, tag := range r.Tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	return Job{
		ID:            id,
		CreatorID:     creatorID,
		Title:         strings.TrimSpace(r.Title),
		Description:   strings.TrimSpace(r.Description),
		VideoURL:      strings.TrimSpace(r.VideoURL),
		VideoDuration: r.VideoDuration,
		Budget:        RoundCents(r.Budget),
		Deadline:      r.Deadline.UTC(),
		Difficulty:    strings.ToLower(strings.TrimSpace(r.Difficulty)),
		Tags:          tags,
		Status:        JobStatusActive,
		Requirements:  strings.TrimSpace(r.Requirements),
		MaxClips:      maxClips,
		AverageViews:  strings.TrimSpace(r.AverageViews),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

type UpdateJobStatusRequest struct {
	Status string `json:"status"`
}

func (r UpdateJobStatusRequest) Validate() error {
	if r.Status != JobStatusCompleted && r.Status != JobStatusCancelled {
		return validationError("Valid status required (completed/cancelled)")
	}
	return nil
}

func JobAcceptsApplications(status string) bool {
	return status == JobStatusActive
}

func JobAcceptsClips(status string) bool {
	return status == JobStatusActive || status == JobStatusInProgress
}

// CheckJobTransition reports whether a job may move from one status to another.
func CheckJobTransition(from, to string) error {
	allowed := false
	switch from {
	case JobStatusActive:
		allowed = to == JobStatusInProgress || to == JobStatusCancelled
	case JobStatusInProgress:
		allowed = to == JobStatusCompleted || to == JobStatusCancelled
	}
	if !allowed {
		return Errorf(ErrInvalidState, "Cannot change job status from %s to %s", from, to)
	}
	return nil
}

// CheckJobStatusChange applies the creator-only rule on top of the transition table.
func CheckJobStatusChange(job Job, actorID, to string) error {
	if job.CreatorID != actorID {
		return Errorf(ErrForbidden, "Access denied")
	}
	return CheckJobTransition(job.Status, to)
}

// JobReachedClipQuota reports whether a job in progress has as many payments as clips it asked for.
func JobReachedClipQuota(job Job, payments int) bool {
	return job.Status == JobStatusInProgress && payments >= job.MaxClips
}
