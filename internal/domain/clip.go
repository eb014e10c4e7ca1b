package domain

import (
	"strings"
	"time"
)

const (
	ClipStatusSubmitted = "submitted"
	ClipStatusApproved  = "approved"
	ClipStatusRejected  = "rejected"
	ClipStatusLive      = "live"
)

type Clip struct {
	ID           string    `json:"id"`
	JobID        string    `json:"jobId"`
	ClipperID    string    `json:"clipperId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Duration     int       `json:"duration"`
	StartTime    int       `json:"startTime"`
	EndTime      int       `json:"endTime"`
	Status       string    `json:"status"`
	Platform     string    `json:"platform,omitempty"`
	Views        int64     `json:"views"`
	Engagement   float64   `json:"engagement"`
	Earnings     float64   `json:"earnings"`
	Feedback     string    `json:"feedback,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ClipAuthor struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar,omitempty"`
}

// JobClip is a clip listed under its job.
type JobClip struct {
	Clip
	Clipper ClipAuthor `json:"clipper"`
}

// ClipperClip is a clip listed in its clipper's portfolio.
type ClipperClip struct {
	Clip
	JobTitle        string `json:"jobTitle"`
	CreatorUsername string `json:"creatorUsername"`
}

type ClipFilter struct {
	ClipperID string
	Status    string
	Platform  string
	Page      Page
}

type SubmitClipRequest struct {
	JobID        string `json:"jobId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ThumbnailKey string `json:"thumbnailKey"`
	Duration     *int   `json:"duration"`
	StartTime    *int   `json:"startTime"`
	EndTime      *int   `json:"endTime"`
	Platform     string `json:"platform"`
}

func (r SubmitClipRequest) Validate() error {
	if strings.TrimSpace(r.JobID) == "" ||
		strings.TrimSpace(r.Title) == "" ||
		strings.TrimSpace(r.VideoURL) == "" ||
		r.Duration == nil || *r.Duration == 0 ||
		r.StartTime == nil ||
		r.EndTime == nil {
		return validationError("Missing required fields")
	}
	if *r.Duration < 0 {
		return validationError("duration must be positive")
	}
	if *r.StartTime < 0 {
		return validationError("startTime cannot be negative")
	}
	if *r.EndTime <= *r.StartTime {
		return validationError("endTime must be after startTime")
	}
	for _, f := range []struct {
		name  string
		value int
	}{{"duration", *r.Duration}, {"endTime", *r.EndTime}} {
		if err := checkMaxInt(f.name, f.value); err != nil {
			return err
		}
	}
	if err := checkLength("title", r.Title, 255); err != nil {
		return err
	}
	return checkLength("platform", r.Platform, 50)
}

// Clip builds the clip row a valid request describes.
func (r SubmitClipRequest) Clip(id, clipperID string, now time.Time) Clip {
	return Clip{
		ID:           id,
		JobID:        strings.TrimSpace(r.JobID),
		ClipperID:    clipperID,
		Title:        strings.TrimSpace(r.Title),
		Description:  strings.TrimSpace(r.Description),
		VideoURL:     strings.TrimSpace(r.VideoURL),
		ThumbnailURL: strings.TrimSpace(r.ThumbnailURL),
		Duration:     *r.Duration,
		StartTime:    *r.StartTime,
		EndTime:      *r.EndTime,
		Status:       ClipStatusSubmitted,
		Platform:     strings.TrimSpace(r.Platform),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

type ReviewClipRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

func (r ReviewClipRequest) Validate() error {
	if r.Status != ClipStatusApproved && r.Status != ClipStatusRejected {
		return validationError("Valid status required (approved/rejected)")
	}
	return nil
}

// ClipPerformance is a partial update; nil fields keep their value.
type ClipPerformance struct {
	Views      *int64   `json:"views"`
	Engagement *float64 `json:"engagement"`
	Earnings   *float64 `json:"earnings"`
}

func (p ClipPerformance) Validate() error {
	if p.Views != nil && *p.Views < 0 {
		return validationError("views cannot be negative")
	}
	if p.Engagement != nil && (*p.Engagement < 0 || *p.Engagement > 999.99) {
		return validationError("engagement must be between 0 and 999.99")
	}
	if p.Earnings != nil {
		if *p.Earnings < 0 {
			return validationError("earnings cannot be negative")
		}
		if RoundCents(*p.Earnings) > MaxAmount {
			return validationError("earnings must be at most %.2f", MaxAmount)
		}
	}
	return nil
}

// Apply returns clip with the non-nil performance fields applied.
func (p ClipPerformance) Apply(clip Clip) Clip {
	if p.Views != nil {
		clip.Views = *p.Views
	}
	if p.Engagement != nil {
		clip.Engagement = RoundCents(*p.Engagement)
	}
	if p.Earnings != nil {
		clip.Earnings = RoundCents(*p.Earnings)
	}
	return clip
}

type PublishClipRequest struct {
	Platform string `json:"platform"`
}

func (r PublishClipRequest) Validate() error {
	return checkLength("platform", r.Platform, 50)
}

// CheckClipSubmission enforces that only accepted clippers submit to open jobs.
// app is nil when the clipper never applied.
func CheckClipSubmission(job Job, app *Application) error {
	if app == nil || app.Status != ApplicationStatusAccepted {
		return Errorf(ErrForbidden, "You must be accepted for this job to submit clips")
	}
	if !JobAcceptsClips(job.Status) {
		return Errorf(ErrInvalidState, "Job is no longer accepting clips")
	}
	return nil
}

// CheckClipReview enforces that the job's creator reviews each submitted clip once.
func CheckClipReview(clip Clip, job Job, actorID string) error {
	if job.CreatorID != actorID {
		return Errorf(ErrForbidden, "Access denied")
	}
	if clip.Status != ClipStatusSubmitted {
		return Errorf(ErrInvalidState, "Can only approve/reject submitted clips")
	}
	return nil
}

func CheckClipOwner(clip Clip, actorID string) error {
	if clip.ClipperID != actorID {
		return Errorf(ErrForbidden, "Access denied")
	}
	return nil
}

// CheckClipLive enforces that only the owner publishes an approved clip.
func CheckClipLive(clip Clip, actorID string) error {
	if err := CheckClipOwner(clip, actorID); err != nil {
		return err
	}
	if clip.Status != ClipStatusApproved {
		return Errorf(ErrInvalidState, "Only approved clips can go live")
	}
	return nil
}

// Payable reports whether a clip can be paid for.
func (c Clip) Payable() bool {
	return c.Status == ClipStatusApproved || c.Status == ClipStatusLive
}
