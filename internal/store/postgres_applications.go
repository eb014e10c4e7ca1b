package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dunamismax/clipit/internal/domain"
)

const applicationColumns = `a.id, a.job_id, a.clipper_id, a.message, a.proposed_timeline, a.status, a.created_at, a.updated_at`

func applicationDest(a *domain.Application) []any {
	return []any{&a.ID, &a.JobID, &a.ClipperID, &a.Message, &a.ProposedTimeline, &a.Status, &a.CreatedAt, &a.UpdatedAt}
}

// findApplication returns nil when clipperID never applied to jobID.
func findApplication(ctx context.Context, q queryer, jobID, clipperID string) (*domain.Application, error) {
	var app domain.Application
	err := q.QueryRowContext(
		ctx,
		`SELECT `+applicationColumns+` FROM job_applications a WHERE a.job_id = $1 AND a.clipper_id = $2`,
		jobID,
		clipperID,
	).Scan(applicationDest(&app)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query application: %w", err)
	}
	return &app, nil
}

func (s *PostgresStore) CreateApplication(ctx context.Context, app domain.Application) (domain.Application, error) {
	app.Status = domain.ApplicationStatusPending
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		job, err := getJob(ctx, tx, app.JobID, true)
		if err != nil {
			return err
		}
		if err := domain.CheckCanApply(job); err != nil {
			return err
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO job_applications (id, job_id, clipper_id, message, proposed_timeline, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			app.ID,
			app.JobID,
			app.ClipperID,
			app.Message,
			app.ProposedTimeline,
			app.Status,
			app.CreatedAt,
			app.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Errorf(domain.ErrInvalidState, "You have already applied to this job")
			}
			return writeError("insert application", err)
		}
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	return app, nil
}

func (s *PostgresStore) ListJobApplications(ctx context.Context, jobID string) ([]domain.JobApplication, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+applicationColumns+`, u.id, u.username, u.first_name, u.last_name, u.avatar, u.rating
		 FROM job_applications a
		 JOIN users u ON u.id = a.clipper_id
		 WHERE a.job_id = $1
		 ORDER BY a.created_at DESC`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query job applications: %w", err)
	}
	defer rows.Close()

	out := make([]domain.JobApplication, 0)
	for rows.Next() {
		var item domain.JobApplication
		dest := append(
			applicationDest(&item.Application),
			&item.Clipper.ID,
			&item.Clipper.Username,
			&item.Clipper.FirstName,
			&item.Clipper.LastName,
			&item.Clipper.Avatar,
			&item.Clipper.Rating,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan job application: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job applications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListClipperApplications(ctx context.Context, clipperID string) ([]domain.ClipperApplication, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+applicationColumns+`, j.title, j.status
		 FROM job_applications a
		 JOIN jobs j ON j.id = a.job_id
		 WHERE a.clipper_id = $1
		 ORDER BY a.created_at DESC`,
		clipperID,
	)
	if err != nil {
		return nil, fmt.Errorf("query clipper applications: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ClipperApplication, 0)
	for rows.Next() {
		var item domain.ClipperApplication
		dest := append(applicationDest(&item.Application), &item.JobTitle, &item.JobStatus)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan clipper application: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clipper applications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DecideApplication(ctx context.Context, appID, actorID, status string) (domain.Application, error) {
	var decided domain.Application
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var app domain.Application
		err := tx.QueryRowContext(
			ctx,
			`SELECT `+applicationColumns+` FROM job_applications a WHERE a.id = $1 FOR UPDATE`,
			appID,
		).Scan(applicationDest(&app)...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound("Application")
			}
			return fmt.Errorf("query application: %w", err)
		}

		job, err := getJob(ctx, tx, app.JobID, false)
		if err != nil {
			return err
		}
		if err := domain.CheckApplicationDecision(app, job, actorID); err != nil {
			return err
		}

		app.Status = status
		app.UpdatedAt = s.now()
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE job_applications SET status = $1, updated_at = $2 WHERE id = $3`,
			app.Status,
			app.UpdatedAt,
			app.ID,
		); err != nil {
			return writeError("update application status", err)
		}

		if status == domain.ApplicationStatusAccepted {
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE users SET total_jobs = total_jobs + 1, updated_at = $1 WHERE id = $2`,
				app.UpdatedAt,
				app.ClipperID,
			); err != nil {
				return fmt.Errorf("increment clipper jobs: %w", err)
			}
		}
		decided = app
		return nil
	})
	return decided, err
}
