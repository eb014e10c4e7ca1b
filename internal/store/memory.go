package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dunamismax/clipit/internal/domain"
)

// MemoryStore is an in-process Store for tests and local development.
// A single mutex serializes every write, which gives it the same
// check-then-write atomicity the Postgres store gets from row locks.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	jobs         map[string]domain.Job
	applications map[string]domain.Application
	clips        map[string]domain.Clip
	payments     map[string]domain.Payment
	reviews      map[string]domain.Review
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]domain.User),
		jobs:         make(map[string]domain.Job),
		applications: make(map[string]domain.Application),
		clips:        make(map[string]domain.Clip),
		payments:     make(map[string]domain.Payment),
		reviews:      make(map[string]domain.Review),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			return domain.User{}, domain.Errorf(domain.ErrInvalidState, "User with this email or username already exists")
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, notFound("User")
	}
	return user, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, notFound("User")
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, notFound("User")
	}
	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		for _, other := range s.users {
			if other.ID != id && other.Username == name {
				return domain.User{}, domain.Errorf(domain.ErrInvalidState, "Username already taken")
			}
		}
	}

	user = update.Apply(user)
	user.UpdatedAt = s.now()
	s.users[id] = user
	return user, nil
}

func (s *MemoryStore) CreatorStats(_ context.Context, id string) (domain.CreatorStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.CreatorStats{Role: domain.RoleCreator}
	owned := make(map[string]bool)
	for _, job := range s.jobs {
		if job.CreatorID != id {
			continue
		}
		owned[job.ID] = true
		stats.TotalJobs++
		stats.TotalBudget += job.Budget
		switch job.Status {
		case domain.JobStatusActive:
			stats.ActiveJobs++
		case domain.JobStatusCompleted:
			stats.CompletedJobs++
		}
	}
	for _, clip := range s.clips {
		if owned[clip.JobID] {
			stats.TotalClipsReceived++
		}
	}
	stats.TotalBudget = domain.RoundCents(stats.TotalBudget)
	return stats, nil
}

func (s *MemoryStore) ClipperStats(_ context.Context, id string) (domain.ClipperStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.ClipperStats{Role: domain.RoleClipper}
	for _, clip := range s.clips {
		if clip.ClipperID != id {
			continue
		}
		stats.TotalClips++
		stats.TotalEarnings += clip.Earnings
		stats.TotalViews += clip.Views
		switch clip.Status {
		case domain.ClipStatusApproved:
			stats.ApprovedClips++
		case domain.ClipStatusLive:
			stats.LiveClips++
		}
	}
	for _, app := range s.applications {
		if app.ClipperID != id {
			continue
		}
		stats.TotalApplications++
		if app.Status == domain.ApplicationStatusAccepted {
			stats.AcceptedApplications++
		}
	}
	stats.TotalEarnings = domain.RoundCents(stats.TotalEarnings)
	return stats, nil
}

func (s *MemoryStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clippers := make([]domain.User, 0)
	for _, user := range s.users {
		if user.Role == domain.RoleClipper {
			clippers = append(clippers, user)
		}
	}
	sort.Slice(clippers, func(i, j int) bool {
		a, b := clippers[i], clippers[j]
		if a.TotalEarnings != b.TotalEarnings {
			return a.TotalEarnings > b.TotalEarnings
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.Username < b.Username
	})
	if len(clippers) > limit {
		clippers = clippers[:limit]
	}

	out := make([]domain.LeaderboardEntry, 0, len(clippers))
	for i, user := range clippers {
		out = append(out, domain.LeaderboardEntry{
			Rank:          i + 1,
			UserID:        user.ID,
			Username:      user.Username,
			FirstName:     user.FirstName,
			LastName:      user.LastName,
			Avatar:        user.Avatar,
			Rating:        user.Rating,
			TotalEarnings: user.TotalEarnings,
			TotalJobs:     user.TotalJobs,
		})
	}
	return out, nil
}

func (s *MemoryStore) CreateJob(_ context.Context, job domain.Job) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creator, ok := s.users[job.CreatorID]
	if !ok {
		return domain.Job{}, notFound("User")
	}
	if job.Tags == nil {
		job.Tags = []string{}
	}
	s.jobs[job.ID] = job

	creator.TotalJobs++
	creator.UpdatedAt = s.now()
	s.users[creator.ID] = creator
	return job, nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, notFound("Job")
	}
	return job, nil
}

func (s *MemoryStore) GetJobDetail(_ context.Context, id string) (domain.JobDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.JobDetail{}, notFound("Job")
	}
	creator := s.users[job.CreatorID]
	return domain.JobDetail{
		Job: job,
		Creator: domain.JobCreator{
			Username:  creator.Username,
			FirstName: creator.FirstName,
			LastName:  creator.LastName,
			Avatar:    creator.Avatar,
			Rating:    creator.Rating,
		},
		ApplicationCount: s.applicationCountLocked(job.ID),
	}, nil
}

func (s *MemoryStore) ListJobs(_ context.Context, filter domain.JobFilter) ([]domain.JobSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]domain.JobSummary, 0)
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Difficulty != "" && job.Difficulty != filter.Difficulty {
			continue
		}
		if filter.MinBudget != nil && job.Budget < *filter.MinBudget {
			continue
		}
		if filter.MaxBudget != nil && job.Budget > *filter.MaxBudget {
			continue
		}
		if filter.CreatorID != "" && job.CreatorID != filter.CreatorID {
			continue
		}
		if len(filter.Tags) > 0 && !overlaps(job.Tags, filter.Tags) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(job.Title), search) &&
			!strings.Contains(strings.ToLower(job.Description), search) {
			continue
		}

		creator := s.users[job.CreatorID]
		matched = append(matched, domain.JobSummary{
			Job:              job,
			CreatorUsername:  creator.Username,
			CreatorAvatar:    creator.Avatar,
			ApplicationCount: s.applicationCountLocked(job.ID),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Page), nil
}

func (s *MemoryStore) UpdateJobStatus(_ context.Context, jobID, actorID, status string) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return domain.Job{}, notFound("Job")
	}
	if err := domain.CheckJobStatusChange(job, actorID, status); err != nil {
		return domain.Job{}, err
	}
	job.Status = status
	job.UpdatedAt = s.now()
	s.jobs[jobID] = job
	return job, nil
}

func (s *MemoryStore) ExpireOverdueJobs(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired int64
	for id, job := range s.jobs {
		if job.Status == domain.JobStatusActive && job.Deadline.Before(now) {
			job.Status = domain.JobStatusCancelled
			job.UpdatedAt = now
			s.jobs[id] = job
			expired++
		}
	}
	return expired, nil
}

func (s *MemoryStore) CreateApplication(_ context.Context, app domain.Application) (domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[app.JobID]
	if !ok {
		return domain.Application{}, notFound("Job")
	}
	if err := domain.CheckCanApply(job); err != nil {
		return domain.Application{}, err
	}
	if s.findApplicationLocked(app.JobID, app.ClipperID) != nil {
		return domain.Application{}, domain.Errorf(domain.ErrInvalidState, "You have already applied to this job")
	}

	app.Status = domain.ApplicationStatusPending
	s.applications[app.ID] = app
	return app, nil
}

func (s *MemoryStore) ListJobApplications(_ context.Context, jobID string) ([]domain.JobApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.JobApplication, 0)
	for _, app := range s.applications {
		if app.JobID != jobID {
			continue
		}
		clipper := s.users[app.ClipperID]
		out = append(out, domain.JobApplication{
			Application: app,
			Clipper: domain.Applicant{
				ID:        clipper.ID,
				Username:  clipper.Username,
				FirstName: clipper.FirstName,
				LastName:  clipper.LastName,
				Avatar:    clipper.Avatar,
				Rating:    clipper.Rating,
			},
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) ListClipperApplications(_ context.Context, clipperID string) ([]domain.ClipperApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ClipperApplication, 0)
	for _, app := range s.applications {
		if app.ClipperID != clipperID {
			continue
		}
		job := s.jobs[app.JobID]
		out = append(out, domain.ClipperApplication{
			Application: app,
			JobTitle:    job.Title,
			JobStatus:   job.Status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DecideApplication(_ context.Context, appID, actorID, status string) (domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[appID]
	if !ok {
		return domain.Application{}, notFound("Application")
	}
	job := s.jobs[app.JobID]
	if err := domain.CheckApplicationDecision(app, job, actorID); err != nil {
		return domain.Application{}, err
	}

	now := s.now()
	app.Status = status
	app.UpdatedAt = now
	s.applications[appID] = app

	if status == domain.ApplicationStatusAccepted {
		if clipper, ok := s.users[app.ClipperID]; ok {
			clipper.TotalJobs++
			clipper.UpdatedAt = now
			s.users[clipper.ID] = clipper
		}
	}
	return app, nil
}

func (s *MemoryStore) SubmitClip(_ context.Context, clip domain.Clip) (domain.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[clip.JobID]
	if !ok {
		return domain.Clip{}, notFound("Job")
	}
	if err := domain.CheckClipSubmission(job, s.findApplicationLocked(clip.JobID, clip.ClipperID)); err != nil {
		return domain.Clip{}, err
	}

	clip.Status = domain.ClipStatusSubmitted
	s.clips[clip.ID] = clip

	if job.Status == domain.JobStatusActive {
		job.Status = domain.JobStatusInProgress
		job.UpdatedAt = s.now()
		s.jobs[job.ID] = job
	}
	return clip, nil
}

func (s *MemoryStore) GetClip(_ context.Context, id string) (domain.Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clip, ok := s.clips[id]
	if !ok {
		return domain.Clip{}, notFound("Clip")
	}
	return clip, nil
}

func (s *MemoryStore) ListJobClips(_ context.Context, jobID, clipperID string) ([]domain.JobClip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.JobClip, 0)
	for _, clip := range s.clips {
		if clip.JobID != jobID || (clipperID != "" && clip.ClipperID != clipperID) {
			continue
		}
		author := s.users[clip.ClipperID]
		out = append(out, domain.JobClip{
			Clip: clip,
			Clipper: domain.ClipAuthor{
				Username:  author.Username,
				FirstName: author.FirstName,
				LastName:  author.LastName,
				Avatar:    author.Avatar,
			},
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) ListClipperClips(_ context.Context, filter domain.ClipFilter) ([]domain.ClipperClip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ClipperClip, 0)
	for _, clip := range s.clips {
		if clip.ClipperID != filter.ClipperID {
			continue
		}
		if filter.Status != "" && clip.Status != filter.Status {
			continue
		}
		if filter.Platform != "" && clip.Platform != filter.Platform {
			continue
		}
		job := s.jobs[clip.JobID]
		out = append(out, domain.ClipperClip{
			Clip:            clip,
			JobTitle:        job.Title,
			CreatorUsername: s.users[job.CreatorID].Username,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, filter.Page), nil
}

func (s *MemoryStore) ReviewClip(_ context.Context, clipID, actorID, status, feedback string) (domain.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.clips[clipID]
	if !ok {
		return domain.Clip{}, notFound("Clip")
	}
	if err := domain.CheckClipReview(clip, s.jobs[clip.JobID], actorID); err != nil {
		return domain.Clip{}, err
	}
	clip.Status = status
	clip.Feedback = feedback
	clip.UpdatedAt = s.now()
	s.clips[clipID] = clip
	return clip, nil
}

func (s *MemoryStore) UpdateClipPerformance(_ context.Context, clipID, actorID string, perf domain.ClipPerformance) (domain.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.clips[clipID]
	if !ok {
		return domain.Clip{}, notFound("Clip")
	}
	if err := domain.CheckClipOwner(clip, actorID); err != nil {
		return domain.Clip{}, err
	}
	clip = perf.Apply(clip)
	clip.UpdatedAt = s.now()
	s.clips[clipID] = clip
	return clip, nil
}

func (s *MemoryStore) PublishClip(_ context.Context, clipID, actorID, platform string) (domain.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.clips[clipID]
	if !ok {
		return domain.Clip{}, notFound("Clip")
	}
	if err := domain.CheckClipLive(clip, actorID); err != nil {
		return domain.Clip{}, err
	}
	clip.Status = domain.ClipStatusLive
	if platform = strings.TrimSpace(platform); platform != "" {
		clip.Platform = platform
	}
	clip.UpdatedAt = s.now()
	s.clips[clipID] = clip
	return clip, nil
}

func (s *MemoryStore) SetClipThumbnail(_ context.Context, clipID, thumbnailURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.clips[clipID]
	if !ok {
		return notFound("Clip")
	}
	clip.ThumbnailURL = thumbnailURL
	clip.UpdatedAt = s.now()
	s.clips[clipID] = clip
	return nil
}

func (s *MemoryStore) CreatePayment(_ context.Context, payment domain.Payment) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.clips[payment.ClipID]
	if !ok {
		return domain.Payment{}, notFound("Clip")
	}
	job := s.jobs[clip.JobID]

	existing := false
	for _, p := range s.payments {
		if p.ClipID == clip.ID {
			existing = true
			break
		}
	}
	if err := domain.CheckPaymentCreation(clip, job, payment.CreatorID, existing); err != nil {
		return domain.Payment{}, err
	}

	payment.JobID = job.ID
	payment.ClipperID = clip.ClipperID
	payment.Amount = domain.RoundCents(payment.Amount)
	payment.Status = domain.PaymentStatusPending
	s.payments[payment.ID] = payment

	if domain.JobReachedClipQuota(job, s.livePaymentCountLocked(job.ID)) {
		job.Status = domain.JobStatusCompleted
		job.UpdatedAt = s.now()
		s.jobs[job.ID] = job
	}
	return payment, nil
}

func (s *MemoryStore) UpdatePaymentStatus(_ context.Context, paymentID, actorID, status, transactionID string) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[paymentID]
	if !ok {
		return domain.Payment{}, domain.Errorf(domain.ErrNotFound, "Payment not found or access denied")
	}
	if err := domain.CheckPaymentUpdate(payment, actorID, status); err != nil {
		return domain.Payment{}, err
	}

	now := s.now()
	payment.Status = status
	if transactionID != "" {
		payment.TransactionID = transactionID
	}
	payment.UpdatedAt = now
	s.payments[paymentID] = payment

	if status == domain.PaymentStatusPaid {
		if clipper, ok := s.users[payment.ClipperID]; ok {
			clipper.TotalEarnings = domain.RoundCents(clipper.TotalEarnings + payment.Amount)
			clipper.UpdatedAt = now
			s.users[clipper.ID] = clipper
		}
		if clip, ok := s.clips[payment.ClipID]; ok {
			clip.Earnings = payment.Amount
			clip.UpdatedAt = now
			s.clips[clip.ID] = clip
		}
	}
	return payment, nil
}

func (s *MemoryStore) PaymentHistory(_ context.Context, filter domain.PaymentFilter) ([]domain.PaymentHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PaymentHistoryEntry, 0)
	for _, p := range s.payments {
		if p.CreatorID != filter.UserID && p.ClipperID != filter.UserID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		paymentType := domain.PaymentTypeIncoming
		if p.CreatorID == filter.UserID {
			paymentType = domain.PaymentTypeOutgoing
		}
		out = append(out, domain.PaymentHistoryEntry{
			ID:            p.ID,
			JobID:         p.JobID,
			JobTitle:      s.jobs[p.JobID].Title,
			ClipID:        p.ClipID,
			Amount:        p.Amount,
			Status:        p.Status,
			PaymentType:   paymentType,
			OtherParty:    s.users[p.Counterparty(filter.UserID)].Username,
			PaymentMethod: p.PaymentMethod,
			TransactionID: p.TransactionID,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, filter.Page), nil
}

func (s *MemoryStore) PaymentTotals(_ context.Context, userID, role string) (domain.PaymentTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var totals domain.PaymentTotals
	for _, p := range s.payments {
		party := p.ClipperID
		if role == domain.RoleCreator {
			party = p.CreatorID
		}
		if party != userID {
			continue
		}
		totals.Count++
		switch p.Status {
		case domain.PaymentStatusPaid:
			totals.PaidCount++
			totals.PaidAmount += p.Amount
		case domain.PaymentStatusPending:
			totals.PendingCount++
			totals.PendingAmount += p.Amount
		}
	}
	return totals, nil
}

func (s *MemoryStore) CreateReview(_ context.Context, review domain.Review) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[review.JobID]
	if !ok {
		return domain.Review{}, notFound("Job")
	}
	accepted := func(userID string) bool {
		app := s.findApplicationLocked(job.ID, userID)
		return app != nil && app.Status == domain.ApplicationStatusAccepted
	}
	if err := domain.CheckReviewParties(job, review.ReviewerID, review.RevieweeID, accepted); err != nil {
		return domain.Review{}, err
	}
	for _, r := range s.reviews {
		if r.ReviewerID == review.ReviewerID && r.RevieweeID == review.RevieweeID && r.JobID == review.JobID {
			return domain.Review{}, domain.Errorf(domain.ErrInvalidState, "You have already reviewed this user for this job")
		}
	}
	s.reviews[review.ID] = review

	ratings := make([]int, 0)
	for _, r := range s.reviews {
		if r.RevieweeID == review.RevieweeID {
			ratings = append(ratings, r.Rating)
		}
	}
	if reviewee, ok := s.users[review.RevieweeID]; ok {
		reviewee.Rating = domain.AverageRating(ratings)
		reviewee.UpdatedAt = s.now()
		s.users[reviewee.ID] = reviewee
	}
	return review, nil
}

func (s *MemoryStore) ListReviews(_ context.Context, revieweeID string) ([]domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Review, 0)
	for _, r := range s.reviews {
		if r.RevieweeID == revieweeID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) applicationCountLocked(jobID string) int {
	count := 0
	for _, app := range s.applications {
		if app.JobID == jobID {
			count++
		}
	}
	return count
}

func (s *MemoryStore) findApplicationLocked(jobID, clipperID string) *domain.Application {
	for _, app := range s.applications {
		if app.JobID == jobID && app.ClipperID == clipperID {
			return &app
		}
	}
	return nil
}

func (s *MemoryStore) livePaymentCountLocked(jobID string) int {
	count := 0
	for _, p := range s.payments {
		if p.JobID == jobID && p.Status != domain.PaymentStatusCancelled {
			count++
		}
	}
	return count
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func paginate[T any](items []T, page domain.Page) []T {
	if page.Size == 0 {
		page = domain.NewPage(page.Number, page.Size)
	}
	start := page.Offset()
	if start >= len(items) {
		return items[:0]
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
