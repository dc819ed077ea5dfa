package apperrors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

const maxRawMessageLength = 100

type paymentPhrase struct {
	match   []string
	message string
}

// Provider error phrases, checked in order
var paymentPhrases = []paymentPhrase{
	{[]string{"insufficient funds", "insufficient balance"}, "Insufficient funds. Please top up your account and try again."},
	{[]string{"payment declined", "transaction declined", "declined"}, "The payment was declined by your provider."},
	{[]string{"invalid account", "invalid phone", "invalid msisdn", "account not found"}, "The account or phone number is not valid for the selected provider."},
	{[]string{"limit exceeded", "transaction limit"}, "This payment exceeds your provider's transaction limit."},
	{[]string{"duplicate transaction", "already processed"}, "This payment appears to have been submitted already."},
	{[]string{"payment expired", "request expired"}, "The payment request expired before it was completed."},
	{[]string{"cancelled by user", "canceled by user"}, "The payment was cancelled."},
}

var networkPhrases = []string{
	"network", "connection refused", "connection reset", "no such host",
	"failed to fetch", "eof", "broken pipe",
}

// Classify turns any error into an AppError. Status codes win over message
// matching; unmatched messages fall back to a server error with the raw text
// cut to 100 characters.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return &AppError{Kind: KindValidation, Message: valErr.Error(), StatusCode: http.StatusBadRequest, Err: err}
	}

	var httpErr *HTTPError
	isHTTP := errors.As(err, &httpErr)
	if isHTTP {
		switch {
		case httpErr.StatusCode == http.StatusUnauthorized:
			return &AppError{Kind: KindAuth, Message: "Your session has expired. Please log in again.", StatusCode: httpErr.StatusCode, Err: err}
		case httpErr.StatusCode == http.StatusForbidden:
			return &AppError{Kind: KindPermission, Message: "You do not have permission to perform this action.", StatusCode: httpErr.StatusCode, Err: err}
		case httpErr.StatusCode == http.StatusNotFound:
			return &AppError{Kind: KindNotFound, Message: "The requested record was not found.", StatusCode: httpErr.StatusCode, Err: err}
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return &AppError{Kind: KindRateLimit, Message: "Too many requests. Please wait a moment and try again.", StatusCode: httpErr.StatusCode, Err: err}
		case httpErr.StatusCode >= 500:
			return &AppError{Kind: KindNetwork, Message: "The payment service is unavailable. Please try again.", StatusCode: httpErr.StatusCode, Err: err}
		}
	}

	if isTimeout(err) {
		return &AppError{Kind: KindTimeout, Message: "The request timed out. Please try again.", StatusCode: http.StatusGatewayTimeout, Err: err}
	}

	raw := err.Error()
	lower := strings.ToLower(raw)

	if !isHTTP && containsAny(lower, networkPhrases) {
		return &AppError{Kind: KindNetwork, Message: "Network error. Please check your connection and try again.", StatusCode: http.StatusBadGateway, Err: err}
	}

	for _, p := range paymentPhrases {
		if containsAny(lower, p.match) {
			return &AppError{Kind: KindPayment, Message: p.message, StatusCode: http.StatusPaymentRequired, Err: err}
		}
	}

	if isHTTP && (httpErr.StatusCode == http.StatusBadRequest || httpErr.StatusCode == http.StatusUnprocessableEntity) {
		return &AppError{Kind: KindValidation, Message: truncate(raw), StatusCode: httpErr.StatusCode, Err: err}
	}

	return &AppError{Kind: KindServer, Message: truncate(raw), StatusCode: http.StatusInternalServerError, Err: err}
}

// Message is a shortcut for Classify(err).Message
func Message(err error) string {
	if err == nil {
		return ""
	}
	return Classify(err).Message
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxRawMessageLength {
		return s
	}
	return string(r[:maxRawMessageLength])
}
