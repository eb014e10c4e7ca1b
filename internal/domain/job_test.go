package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestCreateJobRequestValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	valid := CreateJobRequest{
		Title:         "Podcast highlights",
		Description:   "Cut the best moments",
		VideoURL:      "https://example.com/ep1.mp4",
		VideoDuration: 3600,
		Budget:        150,
		Deadline:      now.Add(72 * time.Hour),
		Difficulty:    "Medium",
	}
	if err := valid.Validate(now); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	missing := valid
	missing.Title = " "
	if err := missing.Validate(now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}

	badDifficulty := valid
	badDifficulty.Difficulty = "extreme"
	if err := badDifficulty.Validate(now); err == nil || err.Error() != "Invalid difficulty level" {
		t.Fatalf("expected invalid difficulty error, got %v", err)
	}

	past := valid
	past.Deadline = now.Add(-time.Hour)
	if err := past.Validate(now); err == nil {
		t.Fatal("expected validation error for past deadline")
	}

	zero := 0
	noClips := valid
	noClips.MaxClips = &zero
	if err := noClips.Validate(now); err == nil {
		t.Fatal("expected validation error for maxClips=0")
	}

	for _, budget := range []float64{0.001, 0.004, -0.001} {
		tiny := valid
		tiny.Budget = budget
		if err := tiny.Validate(now); err == nil || err.Error() != "budget must be positive" {
			t.Fatalf("budget %v: expected positive budget error, got %v", budget, err)
		}
	}
	cent := valid
	cent.Budget = 0.005
	if err := cent.Validate(now); err != nil {
		t.Fatalf("expected budget rounding to 0.01 to be valid, got %v", err)
	}

	rich := valid
	rich.Budget = 1e8
	if err := rich.Validate(now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for budget above %.2f, got %v", MaxAmount, err)
	}

	longTitle := valid
	longTitle.Title = strings.Repeat("é", 256)
	if err := longTitle.Validate(now); err == nil || err.Error() != "title must be at most 255 characters" {
		t.Fatalf("expected title length error, got %v", err)
	}
	longTitle.Title = strings.Repeat("é", 255)
	if err := longTitle.Validate(now); err != nil {
		t.Fatalf("expected 255 character title to be valid, got %v", err)
	}

	views := valid
	views.AverageViews = strings.Repeat("9", 51)
	if err := views.Validate(now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for long averageViews, got %v", err)
	}

	long := valid
	long.VideoDuration = math.MaxInt32 + 1
	if err := long.Validate(now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for huge videoDuration, got %v", err)
	}

	huge := math.MaxInt32 + 1
	manyClips := valid
	manyClips.MaxClips = &huge
	if err := manyClips.Validate(now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for huge maxClips, got %v", err)
	}
}

func TestCreateJobRequestJobDefaults(t *testing.T) {
	now := time.Now().UTC()
	req := CreateJobRequest{
		Title:         " Title ",
		Description:   "desc",
		VideoURL:      "https://example.com/v.mp4",
		VideoDuration: 60,
		Budget:        99.999,
		Deadline:      now.Add(time.Hour),
		Difficulty:    "HARD",
		Tags:          []string{"gaming", " ", "shorts"},
	}

	job := req.Job("job-1", "creator-1", now)
	if job.Status != JobStatusActive {
		t.Fatalf("expected active status, got %s", job.Status)
	}
	if job.MaxClips != DefaultMaxClips {
		t.Fatalf("expected default max clips %d, got %d", DefaultMaxClips, job.MaxClips)
	}
	if job.Title != "Title" {
		t.Fatalf("expected trimmed title, got %q", job.Title)
	}
	if job.Difficulty != DifficultyHard {
		t.Fatalf("expected difficulty hard, got %s", job.Difficulty)
	}
	if job.Budget != 100 {
		t.Fatalf("expected budget rounded to 100, got %v", job.Budget)
	}
	if len(job.Tags) != 2 {
		t.Fatalf("expected blank tags dropped, got %v", job.Tags)
	}
}

func TestCheckJobTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{JobStatusActive, JobStatusInProgress, true},
		{JobStatusActive, JobStatusCancelled, true},
		{JobStatusActive, JobStatusCompleted, false},
		{JobStatusInProgress, JobStatusCompleted, true},
		{JobStatusInProgress, JobStatusCancelled, true},
		{JobStatusCompleted, JobStatusCancelled, false},
		{JobStatusCancelled, JobStatusActive, false},
	}
	for _, tc := range cases {
		err := CheckJobTransition(tc.from, tc.to)
		if tc.ok && err != nil {
			t.Fatalf("%s -> %s: expected allowed, got %v", tc.from, tc.to, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidState) {
			t.Fatalf("%s -> %s: expected ErrInvalidState, got %v", tc.from, tc.to, err)
		}
	}
}

func TestCheckJobStatusChangeRequiresCreator(t *testing.T) {
	job := Job{CreatorID: "creator-1", Status: JobStatusInProgress}
	if err := CheckJobStatusChange(job, "someone-else", JobStatusCompleted); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := CheckJobStatusChange(job, "creator-1", JobStatusCompleted); err != nil {
		t.Fatalf("expected creator to complete job, got %v", err)
	}
}

func TestJobReachedClipQuota(t *testing.T) {
	job := Job{Status: JobStatusInProgress, MaxClips: 2}
	if JobReachedClipQuota(job, 1) {
		t.Fatal("expected quota not reached with 1 payment")
	}
	if !JobReachedClipQuota(job, 2) {
		t.Fatal("expected quota reached with 2 payments")
	}
	job.Status = JobStatusCancelled
	if JobReachedClipQuota(job, 5) {
		t.Fatal("cancelled job must not complete")
	}
}

func TestNewPageClamps(t *testing.T) {
	p := NewPage(0, 1000)
	if p.Number != 1 || p.Size != MaxPageSize {
		t.Fatalf("expected page 1 size %d, got %+v", MaxPageSize, p)
	}
	if got := NewPage(3, 10).Offset(); got != 20 {
		t.Fatalf("expected offset 20, got %d", got)
	}

	far := NewPage(math.MaxInt, MaxPageSize)
	if far.Number != MaxPageNumber {
		t.Fatalf("expected page number clamped to %d, got %d", MaxPageNumber, far.Number)
	}
	if got := far.Offset(); got < 0 {
		t.Fatalf("expected non-negative offset, got %d", got)
	}
}
