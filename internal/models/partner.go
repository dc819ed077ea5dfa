package models

import "time"

// PartnerWallet is a partner's commission balance
type PartnerWallet struct {
	Balance        float64 `json:"balance"`
	PendingBalance float64 `json:"pendingBalance"`
	TotalEarned    float64 `json:"totalEarned"`
	TotalWithdrawn float64 `json:"totalWithdrawn"`
	MinimumPayout  float64 `json:"minimumPayout"`
	Currency       string  `json:"currency"`
}

type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "pending"
	PayoutApproved PayoutStatus = "approved"
	PayoutPaid     PayoutStatus = "paid"
	PayoutRejected PayoutStatus = "rejected"
)

func (s PayoutStatus) Valid() bool {
	switch s {
	case PayoutPending, PayoutApproved, PayoutPaid, PayoutRejected:
		return true
	}
	return false
}

// Payout is a partner's request to withdraw earnings
type Payout struct {
	ID            string        `json:"id"`
	Amount        float64       `json:"amount"`
	Status        PayoutStatus  `json:"status"`
	Method        PaymentMethod `json:"method"`
	AccountNumber string        `json:"accountNumber"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	ProcessedAt   *time.Time    `json:"processedAt,omitempty"`
}

// PayoutRequest is the upstream body for a withdrawal
type PayoutRequest struct {
	Amount        float64       `json:"amount"`
	Method        PaymentMethod `json:"payment_method"`
	AccountNumber string        `json:"account_number"`
	Notes         string        `json:"notes,omitempty"`
}

// PayoutFilter is the query bag for payout listings
type PayoutFilter struct {
	Status PayoutStatus
	Limit  int
	Offset int
}
