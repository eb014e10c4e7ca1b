package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dunamismax/clipit/internal/domain"
)

const userColumns = `u.id, u.email, u.password_hash, u.first_name, u.last_name, u.username, u.role,
	u.avatar, u.bio, u.webhook_url, u.rating, u.total_earnings, u.total_jobs, u.created_at, u.updated_at`

func userDest(u *domain.User) []any {
	return []any{
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Username, &u.Role,
		&u.Avatar, &u.Bio, &u.WebhookURL, &u.Rating, &u.TotalEarnings, &u.TotalJobs, &u.CreatedAt, &u.UpdatedAt,
	}
}

func scanUser(row rowScanner) (domain.User, error) {
	var user domain.User
	if err := row.Scan(userDest(&user)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, notFound("User")
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	user.UpdatedAt = user.CreatedAt

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, username, role, avatar, bio, webhook_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Username,
		user.Role,
		user.Avatar,
		user.Bio,
		user.WebhookURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.Errorf(domain.ErrInvalidState, "User with this email or username already exists")
		}
		return domain.User{}, writeError("insert user", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	return getUser(ctx, s.db, id, false)
}

func getUser(ctx context.Context, q queryer, id string, forUpdate bool) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanUser(q.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(s.db.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	))
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.User, error) {
	var updated domain.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		user, err := getUser(ctx, tx, id, true)
		if err != nil {
			return err
		}
		user = update.Apply(user)
		user.UpdatedAt = s.now()

		_, err = tx.ExecContext(
			ctx,
			`UPDATE users
			 SET first_name = $1, last_name = $2, username = $3, bio = $4, avatar = $5, webhook_url = $6, updated_at = $7
			 WHERE id = $8`,
			user.FirstName,
			user.LastName,
			user.Username,
			user.Bio,
			user.Avatar,
			user.WebhookURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Errorf(domain.ErrInvalidState, "Username already taken")
			}
			return writeError("update profile", err)
		}
		updated = user
		return nil
	})
	return updated, err
}

func (s *PostgresStore) CreatorStats(ctx context.Context, id string) (domain.CreatorStats, error) {
	stats := domain.CreatorStats{Role: domain.RoleCreator}
	err := s.db.QueryRowContext(
		ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(budget), 0),
			(SELECT COUNT(*) FROM clips c JOIN jobs cj ON cj.id = c.job_id WHERE cj.creator_id = $1)
		 FROM jobs
		 WHERE creator_id = $1`,
		id,
	).Scan(&stats.TotalJobs, &stats.ActiveJobs, &stats.CompletedJobs, &stats.TotalBudget, &stats.TotalClipsReceived)
	if err != nil {
		return domain.CreatorStats{}, fmt.Errorf("query creator stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) ClipperStats(ctx context.Context, id string) (domain.ClipperStats, error) {
	stats := domain.ClipperStats{Role: domain.RoleClipper}
	err := s.db.QueryRowContext(
		ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'live'),
			COALESCE(SUM(earnings), 0),
			COALESCE(SUM(views), 0),
			(SELECT COUNT(*) FROM job_applications WHERE clipper_id = $1),
			(SELECT COUNT(*) FROM job_applications WHERE clipper_id = $1 AND status = 'accepted')
		 FROM clips
		 WHERE clipper_id = $1`,
		id,
	).Scan(
		&stats.TotalClips,
		&stats.ApprovedClips,
		&stats.LiveClips,
		&stats.TotalEarnings,
		&stats.TotalViews,
		&stats.TotalApplications,
		&stats.AcceptedApplications,
	)
	if err != nil {
		return domain.ClipperStats{}, fmt.Errorf("query clipper stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, username, first_name, last_name, avatar, rating, total_earnings, total_jobs
		 FROM users
		 WHERE role = 'clipper'
		 ORDER BY total_earnings DESC, rating DESC, username ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		entry := domain.LeaderboardEntry{Rank: len(out) + 1}
		if err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.FirstName,
			&entry.LastName,
			&entry.Avatar,
			&entry.Rating,
			&entry.TotalEarnings,
			&entry.TotalJobs,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return out, nil
}
