package domain

import (
	"strings"
	"time"
)

type Review struct {
	ID         string    `json:"id"`
	ReviewerID string    `json:"reviewerId"`
	RevieweeID string    `json:"revieweeId"`
	JobID      string    `json:"jobId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CreateReviewRequest struct {
	RevieweeID string `json:"revieweeId"`
	JobID      string `json:"jobId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (r CreateReviewRequest) Validate() error {
	if strings.TrimSpace(r.RevieweeID) == "" || strings.TrimSpace(r.JobID) == "" {
		return validationError("revieweeId and jobId are required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return validationError("rating must be between 1 and 5")
	}
	return nil
}

// CheckReviewParties enforces that reviews flow between a job's creator and
// one of its accepted clippers. accepted reports whether a user holds an
// accepted application on the job.
func CheckReviewParties(job Job, reviewerID, revieweeID string, accepted func(userID string) bool) error {
	if reviewerID == revieweeID {
		return validationError("You cannot review yourself")
	}
	switch {
	case reviewerID == job.CreatorID:
		if !accepted(revieweeID) {
			return Errorf(ErrForbidden, "Reviewee did not work on this job")
		}
	case revieweeID == job.CreatorID:
		if !accepted(reviewerID) {
			return Errorf(ErrForbidden, "You did not work on this job")
		}
	default:
		return Errorf(ErrForbidden, "Reviews are only allowed between job participants")
	}
	return nil
}

// AverageRating rounds the mean of ratings to two decimals.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return RoundCents(float64(sum) / float64(len(ratings)))
}
