package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dunamismax/clipit/internal/domain"
)

const clipColumns = `c.id, c.job_id, c.clipper_id, c.title, c.description, c.video_url, c.thumbnail_url, c.duration,
	c.start_time, c.end_time, c.status, c.platform, c.views, c.engagement, c.earnings, c.feedback, c.created_at, c.updated_at`

func clipDest(c *domain.Clip) []any {
	return []any{
		&c.ID, &c.JobID, &c.ClipperID, &c.Title, &c.Description, &c.VideoURL, &c.ThumbnailURL, &c.Duration,
		&c.StartTime, &c.EndTime, &c.Status, &c.Platform, &c.Views, &c.Engagement, &c.Earnings, &c.Feedback, &c.CreatedAt, &c.UpdatedAt,
	}
}

func getClip(ctx context.Context, q queryer, id string, forUpdate bool) (domain.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips c WHERE c.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var clip domain.Clip
	if err := q.QueryRowContext(ctx, query, id).Scan(clipDest(&clip)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Clip{}, notFound("Clip")
		}
		return domain.Clip{}, fmt.Errorf("scan clip: %w", err)
	}
	return clip, nil
}

// SubmitClip inserts the clip and promotes an active job to in_progress in one transaction.
func (s *PostgresStore) SubmitClip(ctx context.Context, clip domain.Clip) (domain.Clip, error) {
	clip.Status = domain.ClipStatusSubmitted
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		job, err := getJob(ctx, tx, clip.JobID, true)
		if err != nil {
			return err
		}
		app, err := findApplication(ctx, tx, clip.JobID, clip.ClipperID)
		if err != nil {
			return err
		}
		if err := domain.CheckClipSubmission(job, app); err != nil {
			return err
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO clips (id, job_id, clipper_id, title, description, video_url, thumbnail_url, duration,
				start_time, end_time, status, platform, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			clip.ID,
			clip.JobID,
			clip.ClipperID,
			clip.Title,
			clip.Description,
			clip.VideoURL,
			clip.ThumbnailURL,
			clip.Duration,
			clip.StartTime,
			clip.EndTime,
			clip.Status,
			clip.Platform,
			clip.CreatedAt,
			clip.UpdatedAt,
		)
		if err != nil {
			return writeError("insert clip", err)
		}

		if job.Status == domain.JobStatusActive {
			return setJobStatus(ctx, tx, job.ID, domain.JobStatusInProgress, s.now())
		}
		return nil
	})
	if err != nil {
		return domain.Clip{}, err
	}
	return clip, nil
}

func (s *PostgresStore) GetClip(ctx context.Context, id string) (domain.Clip, error) {
	return getClip(ctx, s.db, id, false)
}

func (s *PostgresStore) ListJobClips(ctx context.Context, jobID, clipperID string) ([]domain.JobClip, error) {
	var p placeholders
	query := `SELECT ` + clipColumns + `, u.username, u.first_name, u.last_name, u.avatar
		FROM clips c
		JOIN users u ON u.id = c.clipper_id
		WHERE c.job_id = ` + p.add(jobID)
	if clipperID != "" {
		query += ` AND c.clipper_id = ` + p.add(clipperID)
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("query job clips: %w", err)
	}
	defer rows.Close()

	out := make([]domain.JobClip, 0)
	for rows.Next() {
		var item domain.JobClip
		dest := append(clipDest(&item.Clip), &item.Clipper.Username, &item.Clipper.FirstName, &item.Clipper.LastName, &item.Clipper.Avatar)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan job clip: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job clips: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListClipperClips(ctx context.Context, filter domain.ClipFilter) ([]domain.ClipperClip, error) {
	var p placeholders
	where := []string{"c.clipper_id = " + p.add(filter.ClipperID)}
	if filter.Status != "" {
		where = append(where, "c.status = "+p.add(filter.Status))
	}
	if filter.Platform != "" {
		where = append(where, "c.platform = "+p.add(filter.Platform))
	}
	page := filter.Page
	if page.Size == 0 {
		page = domain.NewPage(page.Number, page.Size)
	}

	query := `SELECT ` + clipColumns + `, j.title, u.username
		FROM clips c
		JOIN jobs j ON j.id = c.job_id
		JOIN users u ON u.id = j.creator_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY c.created_at DESC
		LIMIT ` + p.add(page.Size) + ` OFFSET ` + p.add(page.Offset())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("query clipper clips: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ClipperClip, 0)
	for rows.Next() {
		var item domain.ClipperClip
		dest := append(clipDest(&item.Clip), &item.JobTitle, &item.CreatorUsername)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan clipper clip: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clipper clips: %w", err)
	}
	return out, nil
}

// ReviewClip approves or rejects a submitted clip. The update is conditional
// on the submitted status so a concurrent second review cannot win.
func (s *PostgresStore) ReviewClip(ctx context.Context, clipID, actorID, status, feedback string) (domain.Clip, error) {
	var reviewed domain.Clip
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		clip, err := getClip(ctx, tx, clipID, true)
		if err != nil {
			return err
		}
		job, err := getJob(ctx, tx, clip.JobID, false)
		if err != nil {
			return err
		}
		if err := domain.CheckClipReview(clip, job, actorID); err != nil {
			return err
		}

		clip.Status = status
		clip.Feedback = feedback
		clip.UpdatedAt = s.now()
		res, err := tx.ExecContext(
			ctx,
			`UPDATE clips SET status = $1, feedback = $2, updated_at = $3 WHERE id = $4 AND status = 'submitted'`,
			clip.Status,
			clip.Feedback,
			clip.UpdatedAt,
			clip.ID,
		)
		if err != nil {
			return writeError("update clip status", err)
		}
		if ok, err := rowsAffectedOne(res); err != nil {
			return err
		} else if !ok {
			return domain.Errorf(domain.ErrInvalidState, "Can only approve/reject submitted clips")
		}
		reviewed = clip
		return nil
	})
	return reviewed, err
}

func (s *PostgresStore) UpdateClipPerformance(ctx context.Context, clipID, actorID string, perf domain.ClipPerformance) (domain.Clip, error) {
	var updated domain.Clip
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		clip, err := getClip(ctx, tx, clipID, true)
		if err != nil {
			return err
		}
		if err := domain.CheckClipOwner(clip, actorID); err != nil {
			return err
		}

		clip = perf.Apply(clip)
		clip.UpdatedAt = s.now()
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE clips SET views = $1, engagement = $2, earnings = $3, updated_at = $4 WHERE id = $5`,
			clip.Views,
			clip.Engagement,
			clip.Earnings,
			clip.UpdatedAt,
			clip.ID,
		); err != nil {
			return writeError("update clip performance", err)
		}
		updated = clip
		return nil
	})
	return updated, err
}

func (s *PostgresStore) PublishClip(ctx context.Context, clipID, actorID, platform string) (domain.Clip, error) {
	var published domain.Clip
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		clip, err := getClip(ctx, tx, clipID, true)
		if err != nil {
			return err
		}
		if err := domain.CheckClipLive(clip, actorID); err != nil {
			return err
		}

		clip.Status = domain.ClipStatusLive
		if platform = strings.TrimSpace(platform); platform != "" {
			clip.Platform = platform
		}
		clip.UpdatedAt = s.now()
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE clips SET status = $1, platform = $2, updated_at = $3 WHERE id = $4`,
			clip.Status,
			clip.Platform,
			clip.UpdatedAt,
			clip.ID,
		); err != nil {
			return fmt.Errorf("publish clip: %w", err)
		}
		published = clip
		return nil
	})
	return published, err
}

func (s *PostgresStore) SetClipThumbnail(ctx context.Context, clipID, thumbnailURL string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE clips SET thumbnail_url = $1, updated_at = $2 WHERE id = $3`,
		thumbnailURL,
		s.now(),
		clipID,
	)
	if err != nil {
		return writeError("update clip thumbnail", err)
	}
	if ok, err := rowsAffectedOne(res); err != nil {
		return err
	} else if !ok {
		return notFound("Clip")
	}
	return nil
}
