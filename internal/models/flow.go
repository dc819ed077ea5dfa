package models

import "time"

// FlowStep is where a tenant is in the payment flow
type FlowStep string

const (
	StepSelect  FlowStep = "select"
	StepForm    FlowStep = "form"
	StepSuccess FlowStep = "success"
	StepError   FlowStep = "error"
)

// FlowMethod is the tenant's choice on the select step
type FlowMethod string

const (
	// FlowRecord: the tenant already paid outside the system
	FlowRecord FlowMethod = "record"
	// FlowPay: initiate a provider payment
	FlowPay FlowMethod = "pay"
)

func (m FlowMethod) Valid() bool {
	switch m {
	case FlowRecord, FlowPay:
		return true
	}
	return false
}

// PaymentForm holds what the tenant typed on the form step
type PaymentForm struct {
	Amount        float64  `json:"amount"`
	Notes         string   `json:"notes"`
	AccountNumber string   `json:"accountNumber"`
	Provider      Provider `json:"provider,omitempty"`
}

// Transaction is the echo of a successful submission shown on the success step
type Transaction struct {
	Amount        float64    `json:"amount"`
	UnitID        string     `json:"unitId"`
	UnitName      string     `json:"unitName"`
	PropertyName  string     `json:"propertyName"`
	Method        FlowMethod `json:"method"`
	Provider      Provider   `json:"provider,omitempty"`
	PaymentID     string     `json:"paymentId,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	SubmittedAt   time.Time  `json:"submittedAt"`
}

// FlowState is a read-only snapshot of a tenant's payment flow
type FlowState struct {
	Step               FlowStep     `json:"step"`
	SelectedUnit       *Occupancy   `json:"selectedUnit,omitempty"`
	Method             FlowMethod   `json:"method,omitempty"`
	Form               PaymentForm  `json:"form"`
	Loading            bool         `json:"loading"`
	Error              string       `json:"error,omitempty"`
	ErrorKind          string       `json:"errorKind,omitempty"`
	CurrentTransaction *Transaction `json:"currentTransaction,omitempty"`
	Providers          []Provider   `json:"providers"`
}
