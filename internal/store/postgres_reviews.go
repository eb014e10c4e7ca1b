package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dunamismax/clipit/internal/domain"
)

// CreateReview inserts the review and recomputes the reviewee's rating in one transaction.
func (s *PostgresStore) CreateReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		job, err := getJob(ctx, tx, review.JobID, false)
		if err != nil {
			return err
		}

		accepted := make(map[string]bool, 2)
		for _, userID := range []string{review.ReviewerID, review.RevieweeID} {
			app, err := findApplication(ctx, tx, job.ID, userID)
			if err != nil {
				return err
			}
			accepted[userID] = app != nil && app.Status == domain.ApplicationStatusAccepted
		}
		check := func(userID string) bool { return accepted[userID] }
		if err := domain.CheckReviewParties(job, review.ReviewerID, review.RevieweeID, check); err != nil {
			return err
		}

		if _, err := getUser(ctx, tx, review.RevieweeID, true); err != nil {
			return err
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO reviews (id, reviewer_id, reviewee_id, job_id, rating, comment, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			review.ID,
			review.ReviewerID,
			review.RevieweeID,
			review.JobID,
			review.Rating,
			review.Comment,
			review.CreatedAt,
			review.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Errorf(domain.ErrInvalidState, "You have already reviewed this user for this job")
			}
			return writeError("insert review", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE users
			 SET rating = COALESCE((SELECT ROUND(AVG(rating)::numeric, 2) FROM reviews WHERE reviewee_id = $1), 0),
			     updated_at = $2
			 WHERE id = $1`,
			review.RevieweeID,
			s.now(),
		); err != nil {
			return fmt.Errorf("recompute rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

func (s *PostgresStore) ListReviews(ctx context.Context, revieweeID string) ([]domain.Review, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, reviewer_id, reviewee_id, job_id, rating, comment, created_at, updated_at
		 FROM reviews
		 WHERE reviewee_id = $1
		 ORDER BY created_at DESC`,
		revieweeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Review, 0)
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.ID, &r.ReviewerID, &r.RevieweeID, &r.JobID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
