package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the classification shown to users and used to decide on retries
type Kind string

const (
	KindNetwork    Kind = "network_error"
	KindValidation Kind = "validation_error"
	KindPayment    Kind = "payment_error"
	KindAuth       Kind = "auth_error"
	KindPermission Kind = "permission_error"
	KindServer     Kind = "server_error"
	KindTimeout    Kind = "timeout_error"
	KindNotFound   Kind = "not_found_error"
	KindRateLimit  Kind = "rate_limit_error"
)

// Retryable reports whether an operation failing with this kind may succeed if repeated
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServer, KindRateLimit:
		return true
	case KindValidation, KindPayment, KindAuth, KindPermission, KindNotFound:
		return false
	}
	return false
}

// Workflow errors
var (
	// ErrNoUnitSelected is returned when a payment is submitted before a unit is chosen.
	ErrNoUnitSelected = errors.New("no unit selected")

	// ErrSubmissionInProgress is returned when a second submit arrives while the first is in flight.
	ErrSubmissionInProgress = errors.New("a payment submission is already in progress")

	// ErrInvalidTransition is returned when a flow action is not allowed from the current step.
	ErrInvalidTransition = errors.New("action not allowed in current step")

	// ErrPaymentNotFound is returned when a confirmation targets a payment not in the queue.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrPaymentNotPending is returned when a confirmation targets an already decided payment.
	ErrPaymentNotPending = errors.New("payment is no longer pending")

	// ErrNoTransaction is returned when a receipt is requested before a successful submission.
	ErrNoTransaction = errors.New("no completed transaction")
)

// ValidationError is a local field check that failed before any network call
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Required builds a validation error for a missing field
func Required(field string) error {
	return &ValidationError{Field: field}
}

// Invalid builds a validation error with a custom message
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a sentinel to a validation error so callers can errors.Is on it
func Wrap(field string, sentinel error) error {
	return &ValidationError{Field: field, Message: sentinel.Error(), Err: sentinel}
}

// HTTPError is a non-2xx response from the upstream API
type HTTPError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return e.Message
}

// AppError is a classified error ready to be shown to a user
type AppError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Retryable() bool {
	return e.Kind.Retryable()
}
