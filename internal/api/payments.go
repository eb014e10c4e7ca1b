package api

import (
	"net/http"
	"strings"

	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/id"
	"github.com/dunamismax/clipit/internal/queue"
)

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request, user domain.User) {
	page, err := pageFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	history, err := s.store.PaymentHistory(r.Context(), domain.PaymentFilter{
		UserID: user.ID,
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Page:   page,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req domain.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if !id.Valid(strings.TrimSpace(req.ClipID)) {
		s.fail(w, r, domain.Errorf(domain.ErrNotFound, "Clip not found"))
		return
	}

	now := s.now()
	payment, err := s.store.CreatePayment(r.Context(), domain.Payment{
		ID:            id.New(),
		ClipID:        strings.TrimSpace(req.ClipID),
		CreatorID:     user.ID,
		Amount:        req.Amount,
		Status:        domain.PaymentStatusPending,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.notify(r.Context(), queue.EventPaymentCreated, payment.ClipperID, map[string]any{
		"paymentId": payment.ID,
		"clipId":    payment.ClipID,
		"jobId":     payment.JobID,
		"amount":    payment.Amount,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Payment created successfully",
		"payment": payment,
	})
}

func (s *Server) handleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request, user domain.User) {
	paymentID, err := pathID(r, "id", "Payment")
	if err != nil {
		s.fail(w, r, domain.Errorf(domain.ErrNotFound, "Payment not found or access denied"))
		return
	}
	var req domain.UpdatePaymentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	payment, err := s.store.UpdatePaymentStatus(r.Context(), paymentID, user.ID, req.Status, strings.TrimSpace(req.TransactionID))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	event := queue.EventPaymentPaid
	if payment.Status == domain.PaymentStatusCancelled {
		event = queue.EventPaymentCancelled
	}
	s.notify(r.Context(), event, payment.Counterparty(user.ID), map[string]any{
		"paymentId": payment.ID,
		"clipId":    payment.ClipID,
		"jobId":     payment.JobID,
		"amount":    payment.Amount,
		"status":    payment.Status,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Payment " + payment.Status + " successfully",
		"payment": payment,
	})
}

func (s *Server) handlePaymentStats(w http.ResponseWriter, r *http.Request, user domain.User) {
	totals, err := s.store.PaymentTotals(r.Context(), user.ID, user.Role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.PaymentStats(user.Role, totals))
}
