package domain

import (
	"strings"
	"time"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"

	PaymentTypeOutgoing = "outgoing"
	PaymentTypeIncoming = "incoming"
)

type Payment struct {
	ID            string    `json:"id"`
	JobID         string    `json:"jobId"`
	ClipID        string    `json:"clipId,omitempty"`
	CreatorID     string    `json:"creatorId"`
	ClipperID     string    `json:"clipperId"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Counterparty returns the other side of the payment from userID's view.
func (p Payment) Counterparty(userID string) string {
	if p.CreatorID == userID {
		return p.ClipperID
	}
	return p.CreatorID
}

type PaymentHistoryEntry struct {
	ID            string    `json:"id"`
	JobID         string    `json:"jobId"`
	JobTitle      string    `json:"jobTitle"`
	ClipID        string    `json:"clipId,omitempty"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	PaymentType   string    `json:"paymentType"`
	OtherParty    string    `json:"otherParty"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type PaymentFilter struct {
	UserID string
	Status string
	Page   Page
}

// PaymentTotals aggregates one side of a user's payments.
type PaymentTotals struct {
	Count         int
	PaidAmount    float64
	PendingAmount float64
	PaidCount     int
	PendingCount  int
}

type CreatorPaymentStats struct {
	Role          string  `json:"role"`
	TotalPayments int     `json:"totalPayments"`
	TotalPaid     float64 `json:"totalPaid"`
	PendingAmount float64 `json:"pendingAmount"`
	PaidCount     int     `json:"paidCount"`
	PendingCount  int     `json:"pendingCount"`
}

type ClipperPaymentStats struct {
	Role            string  `json:"role"`
	TotalPayments   int     `json:"totalPayments"`
	TotalEarned     float64 `json:"totalEarned"`
	PendingEarnings float64 `json:"pendingEarnings"`
	PaidCount       int     `json:"paidCount"`
	PendingCount    int     `json:"pendingCount"`
}

// PaymentStats shapes totals for the given role.
func PaymentStats(role string, t PaymentTotals) any {
	if role == RoleCreator {
		return CreatorPaymentStats{
			Role:          RoleCreator,
			TotalPayments: t.Count,
			TotalPaid:     RoundCents(t.PaidAmount),
			PendingAmount: RoundCents(t.PendingAmount),
			PaidCount:     t.PaidCount,
			PendingCount:  t.PendingCount,
		}
	}
	return ClipperPaymentStats{
		Role:            RoleClipper,
		TotalPayments:   t.Count,
		TotalEarned:     RoundCents(t.PaidAmount),
		PendingEarnings: RoundCents(t.PendingAmount),
		PaidCount:       t.PaidCount,
		PendingCount:    t.PendingCount,
	}
}

type CreatePaymentRequest struct {
	ClipID        string  `json:"clipId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
}

func (r CreatePaymentRequest) Validate() error {
	if strings.TrimSpace(r.ClipID) == "" || r.Amount == 0 {
		return validationError("Clip ID and amount are required")
	}
	if err := checkAmount("amount", r.Amount); err != nil {
		return err
	}
	return checkLength("paymentMethod", r.PaymentMethod, 50)
}

type UpdatePaymentStatusRequest struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

func (r UpdatePaymentStatusRequest) Validate() error {
	if r.Status != PaymentStatusPaid && r.Status != PaymentStatusCancelled {
		return validationError("Valid status required (paid/cancelled)")
	}
	return checkLength("transactionId", r.TransactionID, 255)
}

// CheckPaymentCreation enforces that the job's creator pays once per approved clip.
func CheckPaymentCreation(clip Clip, job Job, actorID string, existing bool) error {
	if job.CreatorID != actorID {
		return Errorf(ErrForbidden, "Access denied")
	}
	if !clip.Payable() {
		return Errorf(ErrInvalidState, "Can only create payments for approved clips")
	}
	if existing {
		return Errorf(ErrInvalidState, "Payment already exists for this clip")
	}
	return nil
}

// CheckPaymentUpdate enforces who may settle or cancel a payment.
func CheckPaymentUpdate(p Payment, actorID, to string) error {
	if p.CreatorID != actorID && p.ClipperID != actorID {
		return Errorf(ErrNotFound, "Payment not found or access denied")
	}
	if to == PaymentStatusPaid && p.CreatorID != actorID {
		return Errorf(ErrForbidden, "Only the job creator can mark payment as paid")
	}
	if p.Status != PaymentStatusPending {
		return Errorf(ErrInvalidState, "Can only update pending payments")
	}
	return nil
}
