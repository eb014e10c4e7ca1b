package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dunamismax/clipit/internal/domain"
	"github.com/lib/pq"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email VARCHAR(255) UNIQUE NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	first_name VARCHAR(100) NOT NULL,
	last_name VARCHAR(100) NOT NULL,
	username VARCHAR(50) UNIQUE NOT NULL,
	role VARCHAR(20) NOT NULL CHECK (role IN ('creator', 'clipper')),
	avatar TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '',
	webhook_url TEXT NOT NULL DEFAULT '',
	rating NUMERIC(3,2) NOT NULL DEFAULT 0,
	total_earnings NUMERIC(10,2) NOT NULL DEFAULT 0,
	total_jobs INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id UUID PRIMARY KEY,
	creator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	video_url TEXT NOT NULL,
	video_duration INTEGER NOT NULL,
	budget NUMERIC(10,2) NOT NULL,
	deadline TIMESTAMPTZ NOT NULL,
	difficulty VARCHAR(20) NOT NULL CHECK (difficulty IN ('easy', 'medium', 'hard')),
	tags TEXT[] NOT NULL DEFAULT '{}',
	status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'in_progress', 'completed', 'cancelled')),
	requirements TEXT NOT NULL DEFAULT '',
	max_clips INTEGER NOT NULL DEFAULT 5,
	average_views VARCHAR(50) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS job_applications (
	id UUID PRIMARY KEY,
	job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	clipper_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	message TEXT NOT NULL,
	proposed_timeline VARCHAR(100) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (job_id, clipper_id)
);

CREATE TABLE IF NOT EXISTS clips (
	id UUID PRIMARY KEY,
	job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	clipper_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title VARCHAR(255) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	video_url TEXT NOT NULL,
	thumbnail_url TEXT NOT NULL DEFAULT '',
	duration INTEGER NOT NULL,
	start_time INTEGER NOT NULL,
	end_time INTEGER NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'submitted' CHECK (status IN ('submitted', 'approved', 'rejected', 'live')),
	platform VARCHAR(50) NOT NULL DEFAULT '',
	views BIGINT NOT NULL DEFAULT 0,
	engagement NUMERIC(5,2) NOT NULL DEFAULT 0,
	earnings NUMERIC(10,2) NOT NULL DEFAULT 0,
	feedback TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
	id UUID PRIMARY KEY,
	job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	clip_id UUID NOT NULL UNIQUE REFERENCES clips(id) ON DELETE CASCADE,
	creator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	clipper_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	amount NUMERIC(10,2) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid', 'cancelled')),
	payment_method VARCHAR(50) NOT NULL DEFAULT '',
	transaction_id VARCHAR(255) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
	id UUID PRIMARY KEY,
	reviewer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	reviewee_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
	comment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (reviewer_id, reviewee_id, job_id)
);

CREATE INDEX IF NOT EXISTS idx_jobs_creator_id ON jobs(creator_id);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_job_applications_clipper_id ON job_applications(clipper_id);
CREATE INDEX IF NOT EXISTS idx_clips_job_id ON clips(job_id);
CREATE INDEX IF NOT EXISTS idx_clips_clipper_id ON clips(clipper_id);
CREATE INDEX IF NOT EXISTS idx_payments_creator_id ON payments(creator_id);
CREATE INDEX IF NOT EXISTS idx_payments_clipper_id ON payments(clipper_id);
CREATE INDEX IF NOT EXISTS idx_reviews_reviewee_id ON reviews(reviewee_id);
`

// PoolOptions tunes the database/sql connection pool.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewPostgresStore(ctx context.Context, dsn string, pool PoolOptions) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// writeError reports column overflows as validation failures and wraps
// everything else with op.
func writeError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "22001":
			return domain.Errorf(domain.ErrValidation, "Value exceeds maximum length")
		case "22003":
			return domain.Errorf(domain.ErrValidation, "Numeric value out of range")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rowsAffectedOne reports whether exactly one row was written.
func rowsAffectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read rows affected: %w", err)
	}
	return n == 1, nil
}

// placeholders hands out positional parameters for dynamically built queries.
type placeholders struct {
	args []any
}

func (p *placeholders) add(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}
