package models

import "time"

// PaymentMethod is the channel a payment was made through
type PaymentMethod string

const (
	MethodManual      PaymentMethod = "manual"
	MethodMobileMoney PaymentMethod = "mobile_money"
	MethodBank        PaymentMethod = "bank"
	MethodUnknown     PaymentMethod = "unknown"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodManual, MethodMobileMoney, MethodBank:
		return true
	}
	return false
}

// PaymentStatus is the lifecycle state of a payment.
// pending -> confirmed|completed|rejected|failed, never back.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRejected  PaymentStatus = "rejected"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentConfirmed, PaymentRejected, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentConfirmed, PaymentRejected, PaymentCompleted, PaymentFailed:
		return true
	case PaymentPending:
		return false
	}
	return false
}

// IsSettled reports whether the money is counted as received
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentConfirmed || s == PaymentCompleted
}

// CanTransitionTo reports whether next is reachable from s
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s != PaymentPending {
		return false
	}
	return next.IsTerminal()
}

// Payment is a manual (tenant-recorded) or system (provider-initiated) payment
type Payment struct {
	ID                   string        `json:"id"`
	UnitID               string        `json:"unitId"`
	Amount               float64       `json:"amount"`
	PaymentMethod        PaymentMethod `json:"paymentMethod"`
	Status               PaymentStatus `json:"status"`
	Notes                string        `json:"notes"`
	TransactionID        string        `json:"transactionId,omitempty"`
	RejectionReason      string        `json:"rejectionReason,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	ConfirmationDeadline *time.Time    `json:"confirmationDeadline,omitempty"`
}

// PendingPayment is a manual payment waiting in the landlord's confirmation queue
type PendingPayment struct {
	Payment
	TenantName   string    `json:"tenantName"`
	TenantPhone  string    `json:"tenantPhone,omitempty"`
	PropertyName string    `json:"propertyName"`
	UnitName     string    `json:"unitName"`
	PaymentDate  time.Time `json:"paymentDate"`
	PeriodStart  time.Time `json:"periodStart"`
	PeriodEnd    time.Time `json:"periodEnd"`

	DaysPending       int  `json:"daysPending"`
	DaysUntilDeadline *int `json:"daysUntilDeadline,omitempty"`
	IsOverdue         bool `json:"isOverdue"`
}

// PaymentFilter is the query bag for payment listings
type PaymentFilter struct {
	UnitID     string
	PropertyID string
	Status     PaymentStatus
	Method     PaymentMethod
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// ManualPaymentRequest is the upstream body for recording an off-system payment
type ManualPaymentRequest struct {
	UnitID      string  `json:"unit_id"`
	PropertyID  string  `json:"property_id"`
	Amount      float64 `json:"amount"`
	PaymentDate string  `json:"payment_date"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Notes       string  `json:"notes,omitempty"`
}

// SystemPaymentRequest is the upstream body for a provider-initiated payment
type SystemPaymentRequest struct {
	PropertyID    string   `json:"property_id"`
	UnitID        string   `json:"unit_id"`
	Amount        float64  `json:"amount"`
	TransactionID string   `json:"transaction_id"`
	PeriodStart   string   `json:"period_start"`
	PeriodEnd     string   `json:"period_end"`
	AccountNumber string   `json:"account_number"`
	Provider      Provider `json:"provider"`
}

// PaymentResult is what the upstream returns after a submission
type PaymentResult struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"payment_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message,omitempty"`
}

// ConfirmAction is the landlord's decision on a pending manual payment
type ConfirmAction string

const (
	ActionAccept ConfirmAction = "accept"
	ActionReject ConfirmAction = "reject"
)

func (a ConfirmAction) Valid() bool {
	switch a {
	case ActionAccept, ActionReject:
		return true
	}
	return false
}

// ResultingStatus is the status a pending payment moves to under a
func (a ConfirmAction) ResultingStatus() PaymentStatus {
	switch a {
	case ActionAccept:
		return PaymentConfirmed
	case ActionReject:
		return PaymentRejected
	}
	return ""
}

// MinRejectionReasonLength is the shortest rejection reason accepted
const MinRejectionReasonLength = 5

// ConfirmPaymentRequest is the upstream body for accept/reject
type ConfirmPaymentRequest struct {
	Action          ConfirmAction `json:"action"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
}
