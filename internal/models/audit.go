package models

import "time"

// Audit event types
const (
	AuditManualRecorded  = "manual_payment_recorded"
	AuditSystemInitiated = "system_payment_initiated"
	AuditPaymentAccepted = "payment_accepted"
	AuditPaymentRejected = "payment_rejected"
	AuditPayoutRequested = "payout_requested"
)

// AuditEntry is one payment-workflow decision made through this service
type AuditEntry struct {
	ID             int64     `json:"id"`
	EventType      string    `json:"event_type"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	PaymentID      string    `json:"payment_id,omitempty"`
	UnitID         string    `json:"unit_id,omitempty"`
	Amount         float64   `json:"amount"`
	Reason         string    `json:"reason,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
