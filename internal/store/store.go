package store

import (
	"context"
	"time"

	"github.com/dunamismax/clipit/internal/domain"
)

// Store is the persistence surface of the marketplace. Implementations
// enforce the domain state rules atomically: every check-then-write runs
// under a row lock or equivalent.
type Store interface {
	UserStore
	JobStore
	ApplicationStore
	ClipStore
	PaymentStore
	ReviewStore
	Ping(ctx context.Context) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.User, error)
	CreatorStats(ctx context.Context, id string) (domain.CreatorStats, error)
	ClipperStats(ctx context.Context, id string) (domain.ClipperStats, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

type JobStore interface {
	CreateJob(ctx context.Context, job domain.Job) (domain.Job, error)
	GetJob(ctx context.Context, id string) (domain.Job, error)
	GetJobDetail(ctx context.Context, id string) (domain.JobDetail, error)
	ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.JobSummary, error)
	UpdateJobStatus(ctx context.Context, jobID, actorID, status string) (domain.Job, error)
	ExpireOverdueJobs(ctx context.Context, now time.Time) (int64, error)
}

type ApplicationStore interface {
	CreateApplication(ctx context.Context, app domain.Application) (domain.Application, error)
	ListJobApplications(ctx context.Context, jobID string) ([]domain.JobApplication, error)
	ListClipperApplications(ctx context.Context, clipperID string) ([]domain.ClipperApplication, error)
	DecideApplication(ctx context.Context, appID, actorID, status string) (domain.Application, error)
}

type ClipStore interface {
	SubmitClip(ctx context.Context, clip domain.Clip) (domain.Clip, error)
	GetClip(ctx context.Context, id string) (domain.Clip, error)
	// ListJobClips lists a job's clips; a non-empty clipperID restricts to that clipper.
	ListJobClips(ctx context.Context, jobID, clipperID string) ([]domain.JobClip, error)
	ListClipperClips(ctx context.Context, filter domain.ClipFilter) ([]domain.ClipperClip, error)
	ReviewClip(ctx context.Context, clipID, actorID, status, feedback string) (domain.Clip, error)
	UpdateClipPerformance(ctx context.Context, clipID, actorID string, perf domain.ClipPerformance) (domain.Clip, error)
	PublishClip(ctx context.Context, clipID, actorID, platform string) (domain.Clip, error)
	SetClipThumbnail(ctx context.Context, clipID, thumbnailURL string) error
}

type PaymentStore interface {
	// CreatePayment fills JobID and ClipperID from the clip.
	CreatePayment(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID, actorID, status, transactionID string) (domain.Payment, error)
	PaymentHistory(ctx context.Context, filter domain.PaymentFilter) ([]domain.PaymentHistoryEntry, error)
	PaymentTotals(ctx context.Context, userID, role string) (domain.PaymentTotals, error)
}

type ReviewStore interface {
	CreateReview(ctx context.Context, review domain.Review) (domain.Review, error)
	ListReviews(ctx context.Context, revieweeID string) ([]domain.Review, error)
}

func notFound(what string) error {
	return domain.Errorf(domain.ErrNotFound, "%s not found", what)
}
