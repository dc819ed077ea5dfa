package services

import (
	"context"
	"strings"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/upstream"
)

// PaymentService is the landlord's view of payments and the manual
// confirmation queue.
type PaymentService struct {
	client *upstream.Client
	retry  apperrors.RetryPolicy
}

func NewPaymentService(client *upstream.Client, retry apperrors.RetryPolicy) *PaymentService {
	return &PaymentService{client: client, retry: retry}
}

// ListPayments returns payments across the landlord's properties
func (s *PaymentService) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	return apperrors.WithRetry(ctx, s.retry, func(ctx context.Context) ([]models.Payment, error) {
		var body interface{}
		if err := s.client.Get(ctx, pathPayments, PaymentQuery(filter), &body); err != nil {
			return nil, err
		}
		return paymentsFrom(body), nil
	})
}

// ListPendingManualPayments returns manual payments awaiting a decision
func (s *PaymentService) ListPendingManualPayments(ctx context.Context) ([]models.PendingPayment, error) {
	return apperrors.WithRetry(ctx, s.retry, func(ctx context.Context) ([]models.PendingPayment, error) {
		var body interface{}
		if err := s.client.Get(ctx, pathPendingManual, nil, &body); err != nil {
			return nil, err
		}

		items := listFrom(body, "pending_payments", "pendingPayments")
		pending := make([]models.PendingPayment, 0, len(items))
		for _, item := range items {
			pending = append(pending, FormatPendingPaymentForDisplay(item))
		}
		return pending, nil
	})
}

// ConfirmManualPayment accepts or rejects a pending manual payment. It is not
// retried: a lost response must not turn into a second decision.
func (s *PaymentService) ConfirmManualPayment(ctx context.Context, paymentID string, action models.ConfirmAction, reason string) (string, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return "", apperrors.Required("payment_id")
	}
	if !action.Valid() {
		return "", apperrors.Invalid("action", "action must be accept or reject")
	}

	req := models.ConfirmPaymentRequest{Action: action}
	if action == models.ActionReject {
		reason = strings.TrimSpace(reason)
		if len([]rune(reason)) < models.MinRejectionReasonLength {
			return "", apperrors.Invalid("rejection_reason", "rejection reason must be at least %d characters", models.MinRejectionReasonLength)
		}
		req.RejectionReason = reason
	}

	var body map[string]interface{}
	if err := s.client.Post(ctx, confirmPath(paymentID), req, &body); err != nil {
		return "", err
	}

	msg := str(body, "message", "detail")
	if msg == "" {
		if action == models.ActionAccept {
			msg = "Payment confirmed"
		} else {
			msg = "Payment rejected"
		}
	}
	return msg, nil
}
