package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dunamismax/clipit/internal/domain"
)

const paymentColumns = `p.id, p.job_id, p.clip_id, p.creator_id, p.clipper_id, p.amount, p.status,
	p.payment_method, p.transaction_id, p.created_at, p.updated_at`

func paymentDest(p *domain.Payment) []any {
	return []any{
		&p.ID, &p.JobID, &p.ClipID, &p.CreatorID, &p.ClipperID, &p.Amount, &p.Status,
		&p.PaymentMethod, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt,
	}
}

// CreatePayment records a pending payment for an approved clip. The job
// completes in the same transaction once its payments reach maxClips.
func (s *PostgresStore) CreatePayment(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		clip, err := getClip(ctx, tx, payment.ClipID, true)
		if err != nil {
			return err
		}
		job, err := getJob(ctx, tx, clip.JobID, true)
		if err != nil {
			return err
		}

		var existing bool
		if err := tx.QueryRowContext(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM payments WHERE clip_id = $1)`,
			clip.ID,
		).Scan(&existing); err != nil {
			return fmt.Errorf("query existing payment: %w", err)
		}
		if err := domain.CheckPaymentCreation(clip, job, payment.CreatorID, existing); err != nil {
			return err
		}

		payment.JobID = job.ID
		payment.ClipperID = clip.ClipperID
		payment.Amount = domain.RoundCents(payment.Amount)
		payment.Status = domain.PaymentStatusPending
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO payments (id, job_id, clip_id, creator_id, clipper_id, amount, status, payment_method, transaction_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			payment.ID,
			payment.JobID,
			payment.ClipID,
			payment.CreatorID,
			payment.ClipperID,
			payment.Amount,
			payment.Status,
			payment.PaymentMethod,
			payment.TransactionID,
			payment.CreatedAt,
			payment.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Errorf(domain.ErrInvalidState, "Payment already exists for this clip")
			}
			return writeError("insert payment", err)
		}

		var count int
		if err := tx.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM payments WHERE job_id = $1 AND status <> 'cancelled'`,
			job.ID,
		).Scan(&count); err != nil {
			return fmt.Errorf("count job payments: %w", err)
		}
		if domain.JobReachedClipQuota(job, count) {
			return setJobStatus(ctx, tx, job.ID, domain.JobStatusCompleted, s.now())
		}
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return payment, nil
}

// UpdatePaymentStatus settles or cancels a pending payment. Marking paid
// credits the clipper and the clip in the same transaction; the row update
// is conditional on pending so a payment is credited at most once.
func (s *PostgresStore) UpdatePaymentStatus(ctx context.Context, paymentID, actorID, status, transactionID string) (domain.Payment, error) {
	var updated domain.Payment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var payment domain.Payment
		err := tx.QueryRowContext(
			ctx,
			`SELECT `+paymentColumns+` FROM payments p WHERE p.id = $1 FOR UPDATE`,
			paymentID,
		).Scan(paymentDest(&payment)...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Errorf(domain.ErrNotFound, "Payment not found or access denied")
			}
			return fmt.Errorf("query payment: %w", err)
		}
		if err := domain.CheckPaymentUpdate(payment, actorID, status); err != nil {
			return err
		}

		payment.Status = status
		if transactionID != "" {
			payment.TransactionID = transactionID
		}
		payment.UpdatedAt = s.now()
		res, err := tx.ExecContext(
			ctx,
			`UPDATE payments SET status = $1, transaction_id = $2, updated_at = $3 WHERE id = $4 AND status = 'pending'`,
			payment.Status,
			payment.TransactionID,
			payment.UpdatedAt,
			payment.ID,
		)
		if err != nil {
			return writeError("update payment status", err)
		}
		if ok, err := rowsAffectedOne(res); err != nil {
			return err
		} else if !ok {
			return domain.Errorf(domain.ErrInvalidState, "Can only update pending payments")
		}

		if status == domain.PaymentStatusPaid {
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE users SET total_earnings = total_earnings + $1, updated_at = $2 WHERE id = $3`,
				payment.Amount,
				payment.UpdatedAt,
				payment.ClipperID,
			); err != nil {
				return fmt.Errorf("credit clipper earnings: %w", err)
			}
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE clips SET earnings = $1, updated_at = $2 WHERE id = $3`,
				payment.Amount,
				payment.UpdatedAt,
				payment.ClipID,
			); err != nil {
				return fmt.Errorf("credit clip earnings: %w", err)
			}
		}
		updated = payment
		return nil
	})
	return updated, err
}

func (s *PostgresStore) PaymentHistory(ctx context.Context, filter domain.PaymentFilter) ([]domain.PaymentHistoryEntry, error) {
	var p placeholders
	user := p.add(filter.UserID)
	query := `SELECT p.id, p.job_id, j.title, p.clip_id, p.amount, p.status,
			CASE WHEN p.creator_id = ` + user + ` THEN 'outgoing' ELSE 'incoming' END,
			CASE WHEN p.creator_id = ` + user + ` THEN cu.username ELSE cr.username END,
			p.payment_method, p.transaction_id, p.created_at, p.updated_at
		FROM payments p
		JOIN jobs j ON j.id = p.job_id
		JOIN users cr ON cr.id = p.creator_id
		JOIN users cu ON cu.id = p.clipper_id
		WHERE (p.creator_id = ` + user + ` OR p.clipper_id = ` + user + `)`
	if filter.Status != "" {
		query += ` AND p.status = ` + p.add(filter.Status)
	}
	page := filter.Page
	if page.Size == 0 {
		page = domain.NewPage(page.Number, page.Size)
	}
	query += ` ORDER BY p.created_at DESC LIMIT ` + p.add(page.Size) + ` OFFSET ` + p.add(page.Offset())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("query payment history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PaymentHistoryEntry, 0)
	for rows.Next() {
		var e domain.PaymentHistoryEntry
		if err := rows.Scan(
			&e.ID,
			&e.JobID,
			&e.JobTitle,
			&e.ClipID,
			&e.Amount,
			&e.Status,
			&e.PaymentType,
			&e.OtherParty,
			&e.PaymentMethod,
			&e.TransactionID,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment history: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment history: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) PaymentTotals(ctx context.Context, userID, role string) (domain.PaymentTotals, error) {
	column := "clipper_id"
	if role == domain.RoleCreator {
		column = "creator_id"
	}

	var totals domain.PaymentTotals
	err := s.db.QueryRowContext(
		ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'pending')
		 FROM payments
		 WHERE `+column+` = $1`,
		userID,
	).Scan(&totals.Count, &totals.PaidAmount, &totals.PendingAmount, &totals.PaidCount, &totals.PendingCount)
	if err != nil {
		return domain.PaymentTotals{}, fmt.Errorf("query payment totals: %w", err)
	}
	return totals, nil
}
