package notify

import (
	"time"

	"rentflow-backend/internal/apperrors"
)

// Success builds a success toast
func Success(title, message string) Toast {
	return Toast{Type: ToastSuccess, Title: title, Message: message, Timestamp: time.Now()}
}

// Failure builds an error toast carrying the classified message of err
func Failure(title string, err error) Toast {
	t := Toast{Type: ToastError, Title: title, Timestamp: time.Now()}
	if appErr := apperrors.Classify(err); appErr != nil {
		t.Message = appErr.Message
		t.Kind = string(appErr.Kind)
	}
	return t
}

// Discard drops every toast
type Discard struct{}

func (Discard) Notify(string, Toast) {}
