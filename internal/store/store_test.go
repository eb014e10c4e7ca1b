package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreWorkflow(t *testing.T) {
	runWorkflow(t, NewMemoryStore())
}

func TestMemoryStoreConcurrentSettlement(t *testing.T) {
	runConcurrentSettlement(t, NewMemoryStore())
}

func TestPostgresStoreWorkflow(t *testing.T) {
	dsn := os.Getenv("CLIPIT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CLIPIT_TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewPostgresStore(ctx, dsn, PoolOptions{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	runWorkflow(t, s)
	runConcurrentSettlement(t, s)
}

func newUser(t *testing.T, s Store, role string) domain.User {
	t.Helper()
	suffix := id.New()[:8]
	user, err := s.CreateUser(context.Background(), domain.User{
		ID:           id.New(),
		Email:        role + "-" + suffix + "@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     role,
		Username:     role + "_" + suffix,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	return user
}

func newJob(t *testing.T, s Store, creatorID string, maxClips int) domain.Job {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	req := domain.CreateJobRequest{
		Title:         "Stream highlights",
		Description:   "Find the best five moments",
		VideoURL:      "https://example.com/stream.mp4",
		VideoDuration: 7200,
		Budget:        250,
		Deadline:      now.Add(48 * time.Hour),
		Difficulty:    domain.DifficultyMedium,
		Tags:          []string{"gaming", "shorts"},
		MaxClips:      &maxClips,
	}
	job, err := s.CreateJob(context.Background(), req.Job(id.New(), creatorID, now))
	require.NoError(t, err)
	return job
}

func newClip(jobID, clipperID string) domain.Clip {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Clip{
		ID:        id.New(),
		JobID:     jobID,
		ClipperID: clipperID,
		Title:     "Clutch round",
		VideoURL:  "https://example.com/clip.mp4",
		Duration:  30,
		StartTime: 60,
		EndTime:   90,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func runWorkflow(t *testing.T, s Store) {
	ctx := context.Background()
	creator := newUser(t, s, domain.RoleCreator)
	clipper := newUser(t, s, domain.RoleClipper)
	outsider := newUser(t, s, domain.RoleClipper)

	_, err := s.CreateUser(ctx, domain.User{ID: id.New(), Email: clipper.Email, Username: "fresh_" + id.New()[:8], Role: domain.RoleClipper})
	require.ErrorIs(t, err, domain.ErrInvalidState, "duplicate email must be rejected")

	job := newJob(t, s, creator.ID, 1)
	got, err := s.GetUser(ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalJobs)

	now := time.Now().UTC()
	app := domain.Application{ID: id.New(), JobID: job.ID, ClipperID: clipper.ID, Message: "I cut streams daily", CreatedAt: now, UpdatedAt: now}
	_, err = s.CreateApplication(ctx, app)
	require.NoError(t, err)

	dup := app
	dup.ID = id.New()
	_, err = s.CreateApplication(ctx, dup)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "You have already applied to this job", err.Error())

	_, err = s.SubmitClip(ctx, newClip(job.ID, clipper.ID))
	require.ErrorIs(t, err, domain.ErrForbidden, "pending applicant must not submit")

	_, err = s.DecideApplication(ctx, app.ID, outsider.ID, domain.ApplicationStatusAccepted)
	require.ErrorIs(t, err, domain.ErrForbidden)

	decided, err := s.DecideApplication(ctx, app.ID, creator.ID, domain.ApplicationStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusAccepted, decided.Status)

	applications, err := s.ListJobApplications(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, applications, 1)
	assert.Equal(t, clipper.Username, applications[0].Clipper.Username)

	clip, err := s.SubmitClip(ctx, newClip(job.ID, clipper.ID))
	require.NoError(t, err)
	promoted, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusInProgress, promoted.Status)

	_, err = s.CreatePayment(ctx, domain.Payment{ID: id.New(), ClipID: clip.ID, CreatorID: creator.ID, Amount: 50, CreatedAt: now, UpdatedAt: now})
	require.ErrorIs(t, err, domain.ErrInvalidState, "unreviewed clip must not be paid")

	_, err = s.ReviewClip(ctx, clip.ID, creator.ID, domain.ClipStatusApproved, "great pacing")
	require.NoError(t, err)
	_, err = s.ReviewClip(ctx, clip.ID, creator.ID, domain.ClipStatusRejected, "")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	payment, err := s.CreatePayment(ctx, domain.Payment{ID: id.New(), ClipID: clip.ID, CreatorID: creator.ID, Amount: 49.999, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, clipper.ID, payment.ClipperID)
	assert.Equal(t, job.ID, payment.JobID)
	assert.Equal(t, 50.0, payment.Amount)

	completed, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, completed.Status, "job with maxClips=1 completes on first payment")

	_, err = s.CreatePayment(ctx, domain.Payment{ID: id.New(), ClipID: clip.ID, CreatorID: creator.ID, Amount: 10, CreatedAt: now, UpdatedAt: now})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = s.UpdatePaymentStatus(ctx, payment.ID, clipper.ID, domain.PaymentStatusPaid, "")
	require.ErrorIs(t, err, domain.ErrForbidden)

	paid, err := s.UpdatePaymentStatus(ctx, payment.ID, creator.ID, domain.PaymentStatusPaid, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "txn-1", paid.TransactionID)

	_, err = s.UpdatePaymentStatus(ctx, payment.ID, creator.ID, domain.PaymentStatusPaid, "txn-2")
	require.ErrorIs(t, err, domain.ErrInvalidState, "second settlement must not double credit")

	credited, err := s.GetUser(ctx, clipper.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, credited.TotalEarnings)
	assert.Equal(t, 1, credited.TotalJobs)

	paidClip, err := s.GetClip(ctx, clip.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, paidClip.Earnings)

	history, err := s.PaymentHistory(ctx, domain.PaymentFilter{UserID: creator.ID, Page: domain.NewPage(1, 10)})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.PaymentTypeOutgoing, history[0].PaymentType)
	assert.Equal(t, clipper.Username, history[0].OtherParty)

	totals, err := s.PaymentTotals(ctx, clipper.ID, domain.RoleClipper)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.PaidCount)
	assert.Equal(t, 50.0, totals.PaidAmount)

	review := domain.Review{ID: id.New(), ReviewerID: creator.ID, RevieweeID: clipper.ID, JobID: job.ID, Rating: 4, CreatedAt: now, UpdatedAt: now}
	_, err = s.CreateReview(ctx, review)
	require.NoError(t, err)
	review.ID = id.New()
	_, err = s.CreateReview(ctx, review)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = s.CreateReview(ctx, domain.Review{ID: id.New(), ReviewerID: outsider.ID, RevieweeID: creator.ID, JobID: job.ID, Rating: 1, CreatedAt: now, UpdatedAt: now})
	require.ErrorIs(t, err, domain.ErrForbidden)

	rated, err := s.GetUser(ctx, clipper.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, rated.Rating)

	reviews, err := s.ListReviews(ctx, clipper.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	stats, err := s.ClipperStats(ctx, clipper.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalClips)
	assert.Equal(t, 1, stats.ApprovedClips)
	assert.Equal(t, 1, stats.AcceptedApplications)

	creatorStats, err := s.CreatorStats(ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, creatorStats.TotalJobs)
	assert.Equal(t, 1, creatorStats.CompletedJobs)
	assert.Equal(t, 1, creatorStats.TotalClipsReceived)
}

func TestMemoryStoreListJobsFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	creator := newUser(t, s, domain.RoleCreator)
	other := newUser(t, s, domain.RoleCreator)

	for i := 0; i < 3; i++ {
		newJob(t, s, creator.ID, 5)
	}
	otherJob := newJob(t, s, other.ID, 5)

	all, err := s.ListJobs(ctx, domain.JobFilter{Status: domain.JobStatusActive, Page: domain.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mine, err := s.ListJobs(ctx, domain.JobFilter{CreatorID: creator.ID, Page: domain.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	assert.Equal(t, creator.Username, mine[0].CreatorUsername)

	paged, err := s.ListJobs(ctx, domain.JobFilter{Page: domain.NewPage(2, 3)})
	require.NoError(t, err)
	assert.Len(t, paged, 1)

	minBudget := 300.0
	none, err := s.ListJobs(ctx, domain.JobFilter{MinBudget: &minBudget, Page: domain.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Empty(t, none)

	tagged, err := s.ListJobs(ctx, domain.JobFilter{Tags: []string{"podcast", "shorts"}, Search: "FIVE moments", Page: domain.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Len(t, tagged, 4)

	_, err = s.UpdateJobStatus(ctx, otherJob.ID, creator.ID, domain.JobStatusCancelled)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = s.UpdateJobStatus(ctx, otherJob.ID, other.ID, domain.JobStatusCompleted)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	cancelled, err := s.UpdateJobStatus(ctx, otherJob.ID, other.ID, domain.JobStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCancelled, cancelled.Status)

	clipper := newUser(t, s, domain.RoleClipper)
	_, err = s.CreateApplication(ctx, domain.Application{ID: id.New(), JobID: otherJob.ID, ClipperID: clipper.ID, Message: "hi"})
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMemoryStoreExpireOverdueJobs(t *testing.T) {
	s := NewMemoryStore()
	creator := newUser(t, s, domain.RoleCreator)
	job := newJob(t, s, creator.ID, 5)

	n, err := s.ExpireOverdueJobs(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.ExpireOverdueJobs(context.Background(), job.Deadline.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	expired, err := s.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCancelled, expired.Status)
}

func TestMemoryStoreUpdateProfileRejectsTakenUsername(t *testing.T) {
	s := NewMemoryStore()
	a := newUser(t, s, domain.RoleCreator)
	b := newUser(t, s, domain.RoleClipper)

	taken := b.Username
	_, err := s.UpdateProfile(context.Background(), a.ID, domain.ProfileUpdate{Username: &taken})
	require.Error(t, err)
	assert.Equal(t, "Username already taken", err.Error())

	bio := "I make trailers"
	updated, err := s.UpdateProfile(context.Background(), a.ID, domain.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, a.Username, updated.Username)
}

func TestMemoryStoreLeaderboardOrdersByEarnings(t *testing.T) {
	s := NewMemoryStore()
	low := newUser(t, s, domain.RoleClipper)
	high := newUser(t, s, domain.RoleClipper)
	newUser(t, s, domain.RoleCreator)

	s.mu.Lock()
	u := s.users[high.ID]
	u.TotalEarnings = 500
	s.users[high.ID] = u
	s.mu.Unlock()

	board, err := s.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, high.ID, board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, low.ID, board[1].UserID)
}

func TestNotFoundKinds(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetJob(context.Background(), id.New())
	if !errors.Is(err, domain.ErrNotFound) || err.Error() != "Job not found" {
		t.Fatalf("expected Job not found, got %v", err)
	}
	_, err = s.UpdatePaymentStatus(context.Background(), id.New(), id.New(), domain.PaymentStatusPaid, "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown payment, got %v", err)
	}
}

// runConcurrentSettlement marks one payment paid from several goroutines at
// once. Exactly one may credit the clipper.
func runConcurrentSettlement(t *testing.T, s Store) {
	ctx := context.Background()
	creator := newUser(t, s, domain.RoleCreator)
	clipper := newUser(t, s, domain.RoleClipper)
	job := newJob(t, s, creator.ID, 1)

	now := time.Now().UTC().Truncate(time.Microsecond)
	app, err := s.CreateApplication(ctx, domain.Application{ID: id.New(), JobID: job.ID, ClipperID: clipper.ID, Message: "on it", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	_, err = s.DecideApplication(ctx, app.ID, creator.ID, domain.ApplicationStatusAccepted)
	require.NoError(t, err)
	clip, err := s.SubmitClip(ctx, newClip(job.ID, clipper.ID))
	require.NoError(t, err)
	_, err = s.ReviewClip(ctx, clip.ID, creator.ID, domain.ClipStatusApproved, "")
	require.NoError(t, err)
	payment, err := s.CreatePayment(ctx, domain.Payment{ID: id.New(), ClipID: clip.ID, CreatorID: creator.ID, Amount: 75, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = s.UpdatePaymentStatus(ctx, payment.ID, creator.ID, domain.PaymentStatusPaid, id.New())
		}()
	}
	close(start)
	wg.Wait()

	settled := 0
	for _, err := range errs {
		if err == nil {
			settled++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Equal(t, "Can only update pending payments", err.Error())
	}
	assert.Equal(t, 1, settled, "exactly one settlement must win")

	credited, err := s.GetUser(ctx, clipper.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, credited.TotalEarnings)

	paidClip, err := s.GetClip(ctx, clip.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, paidClip.Earnings)

	totals, err := s.PaymentTotals(ctx, clipper.ID, domain.RoleClipper)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.PaidCount)
	assert.Equal(t, 75.0, totals.PaidAmount)
}
