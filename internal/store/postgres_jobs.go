package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dunamismax/clipit/internal/domain"
	"github.com/lib/pq"
)

const jobColumns = `j.id, j.creator_id, j.title, j.description, j.video_url, j.video_duration, j.budget,
	j.deadline, j.difficulty, j.tags, j.status, j.requirements, j.max_clips, j.average_views, j.created_at, j.updated_at`

func jobDest(j *domain.Job) []any {
	return []any{
		&j.ID, &j.CreatorID, &j.Title, &j.Description, &j.VideoURL, &j.VideoDuration, &j.Budget,
		&j.Deadline, &j.Difficulty, pq.Array(&j.Tags), &j.Status, &j.Requirements, &j.MaxClips, &j.AverageViews, &j.CreatedAt, &j.UpdatedAt,
	}
}

func scanJob(row rowScanner) (domain.Job, error) {
	var job domain.Job
	if err := row.Scan(jobDest(&job)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Job{}, notFound("Job")
		}
		return domain.Job{}, fmt.Errorf("scan job: %w", err)
	}
	if job.Tags == nil {
		job.Tags = []string{}
	}
	return job, nil
}

// getJob reads a job, optionally taking a row lock inside a transaction.
func getJob(ctx context.Context, q queryer, id string, forUpdate bool) (domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs j WHERE j.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanJob(q.QueryRowContext(ctx, query, id))
}

func setJobStatus(ctx context.Context, q queryer, jobID, status string, now time.Time) error {
	if _, err := q.ExecContext(ctx, `UPDATE jobs SET status = $1, updated_at = $2 WHERE id = $3`, status, now, jobID); err != nil {
		return writeError("update job status", err)
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job domain.Job) (domain.Job, error) {
	if job.Tags == nil {
		job.Tags = []string{}
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE users SET total_jobs = total_jobs + 1, updated_at = $1 WHERE id = $2`,
			job.CreatedAt,
			job.CreatorID,
		)
		if err != nil {
			return fmt.Errorf("increment creator jobs: %w", err)
		}
		if ok, err := rowsAffectedOne(res); err != nil {
			return err
		} else if !ok {
			return notFound("User")
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO jobs (id, creator_id, title, description, video_url, video_duration, budget, deadline,
				difficulty, tags, status, requirements, max_clips, average_views, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			job.ID,
			job.CreatorID,
			job.Title,
			job.Description,
			job.VideoURL,
			job.VideoDuration,
			job.Budget,
			job.Deadline,
			job.Difficulty,
			pq.Array(job.Tags),
			job.Status,
			job.Requirements,
			job.MaxClips,
			job.AverageViews,
			job.CreatedAt,
			job.UpdatedAt,
		)
		if err != nil {
			return writeError("insert job", err)
		}
		return nil
	})
	if err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (domain.Job, error) {
	return getJob(ctx, s.db, id, false)
}

func (s *PostgresStore) GetJobDetail(ctx context.Context, id string) (domain.JobDetail, error) {
	var detail domain.JobDetail
	dest := append(
		jobDest(&detail.Job),
		&detail.Creator.Username,
		&detail.Creator.FirstName,
		&detail.Creator.LastName,
		&detail.Creator.Avatar,
		&detail.Creator.Rating,
		&detail.ApplicationCount,
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+`, u.username, u.first_name, u.last_name, u.avatar, u.rating,
			(SELECT COUNT(*) FROM job_applications a WHERE a.job_id = j.id)
		 FROM jobs j
		 JOIN users u ON u.id = j.creator_id
		 WHERE j.id = $1`,
		id,
	).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JobDetail{}, notFound("Job")
		}
		return domain.JobDetail{}, fmt.Errorf("query job detail: %w", err)
	}
	if detail.Tags == nil {
		detail.Tags = []string{}
	}
	return detail, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.JobSummary, error) {
	var (
		p     placeholders
		where []string
	)
	if filter.Status != "" {
		where = append(where, "j.status = "+p.add(filter.Status))
	}
	if filter.Difficulty != "" {
		where = append(where, "j.difficulty = "+p.add(filter.Difficulty))
	}
	if filter.MinBudget != nil {
		where = append(where, "j.budget >= "+p.add(*filter.MinBudget))
	}
	if filter.MaxBudget != nil {
		where = append(where, "j.budget <= "+p.add(*filter.MaxBudget))
	}
	if len(filter.Tags) > 0 {
		where = append(where, "j.tags && "+p.add(pq.Array(filter.Tags)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		arg := p.add("%" + search + "%")
		where = append(where, "(j.title ILIKE "+arg+" OR j.description ILIKE "+arg+")")
	}
	if filter.CreatorID != "" {
		where = append(where, "j.creator_id = "+p.add(filter.CreatorID))
	}

	query := `SELECT ` + jobColumns + `, u.username, u.avatar,
		(SELECT COUNT(*) FROM job_applications a WHERE a.job_id = j.id)
		FROM jobs j
		JOIN users u ON u.id = j.creator_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	page := filter.Page
	if page.Size == 0 {
		page = domain.NewPage(page.Number, page.Size)
	}
	query += " ORDER BY j.created_at DESC LIMIT " + p.add(page.Size) + " OFFSET " + p.add(page.Offset())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.JobSummary, 0)
	for rows.Next() {
		var summary domain.JobSummary
		dest := append(jobDest(&summary.Job), &summary.CreatorUsername, &summary.CreatorAvatar, &summary.ApplicationCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan job summary: %w", err)
		}
		if summary.Tags == nil {
			summary.Tags = []string{}
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID, actorID, status string) (domain.Job, error) {
	var updated domain.Job
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		job, err := getJob(ctx, tx, jobID, true)
		if err != nil {
			return err
		}
		if err := domain.CheckJobStatusChange(job, actorID, status); err != nil {
			return err
		}
		job.Status = status
		job.UpdatedAt = s.now()
		if err := setJobStatus(ctx, tx, job.ID, job.Status, job.UpdatedAt); err != nil {
			return err
		}
		updated = job
		return nil
	})
	return updated, err
}

func (s *PostgresStore) ExpireOverdueJobs(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = 'cancelled', updated_at = $1 WHERE status = 'active' AND deadline < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("expire overdue jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected: %w", err)
	}
	return n, nil
}
