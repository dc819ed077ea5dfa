package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/middleware"
	"rentflow-backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type errorResponse struct {
	Error  string            `json:"error"`
	Kind   apperrors.Kind    `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAppError classifies err and answers with the matching status
func writeAppError(w http.ResponseWriter, err error) {
	status, kind := statusFor(err)
	writeJSON(w, status, errorResponse{Error: apperrors.Message(err), Kind: kind})
}

func statusFor(err error) (int, apperrors.Kind) {
	switch {
	case errors.Is(err, apperrors.ErrNoUnitSelected):
		return http.StatusBadRequest, apperrors.KindValidation
	case errors.Is(err, apperrors.ErrPaymentNotFound), errors.Is(err, apperrors.ErrNoTransaction):
		return http.StatusNotFound, apperrors.KindNotFound
	case errors.Is(err, apperrors.ErrSubmissionInProgress),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrPaymentNotPending):
		return http.StatusConflict, apperrors.KindValidation
	}

	appErr := apperrors.Classify(err)
	switch appErr.Kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest, appErr.Kind
	case apperrors.KindAuth:
		return http.StatusUnauthorized, appErr.Kind
	case apperrors.KindPermission:
		return http.StatusForbidden, appErr.Kind
	case apperrors.KindNotFound:
		return http.StatusNotFound, appErr.Kind
	case apperrors.KindRateLimit:
		return http.StatusTooManyRequests, appErr.Kind
	case apperrors.KindTimeout:
		return http.StatusGatewayTimeout, appErr.Kind
	case apperrors.KindPayment:
		return http.StatusUnprocessableEntity, appErr.Kind
	}
	return http.StatusBadGateway, appErr.Kind
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, "Invalid input")
			return false
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "Validation failed",
			Kind:   apperrors.KindValidation,
			Fields: fields,
		})
		return false
	}
	return true
}

func actorFrom(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID not found in context")
	}
	return actor, ok
}

// paging reads limit/offset query params, ignoring malformed values
func paging(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
