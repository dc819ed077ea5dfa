package handlers

import (
	"context"
	"net/http"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/session"
	"rentflow-backend/internal/timeutil"

	"github.com/gorilla/mux"
)

// PaymentLister lists payments across the landlord's properties
type PaymentLister interface {
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
}

// LandlordHandler serves the pending manual payment queue
type LandlordHandler struct {
	Sessions *session.Registry
	Payments PaymentLister
}

func NewLandlordHandler(sessions *session.Registry, payments PaymentLister) *LandlordHandler {
	return &LandlordHandler{Sessions: sessions, Payments: payments}
}

type confirmRequest struct {
	Action models.ConfirmAction `json:"action" validate:"required,oneof=accept reject"`
	Reason string               `json:"reason" validate:"max=500"`
}

// PendingPayments returns the filtered queue. Query params replace the
// current filters; the first call loads the queue from upstream.
func (h *LandlordHandler) PendingPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	store := h.Sessions.Get(actor).Confirmations

	q := r.URL.Query()
	if q.Has("search") || q.Has("dateRange") || q.Has("sortKey") || q.Has("sortOrder") {
		err := store.SetFilters(models.PendingFilters{
			Search:    q.Get("search"),
			DateRange: models.DateRange(q.Get("dateRange")),
			SortKey:   models.SortKey(q.Get("sortKey")),
			SortOrder: models.SortOrder(q.Get("sortOrder")),
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
	}

	if store.State(timeutil.Now()).LastFetched == nil {
		if err := store.FetchPendingPayments(r.Context()); err != nil {
			writeAppError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, store.State(timeutil.Now()))
}

func (h *LandlordHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	store := h.Sessions.Get(actor).Confirmations

	if err := store.FetchPendingPayments(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.State(timeutil.Now()))
}

// Summary counts the whole queue regardless of filters
func (h *LandlordHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Sessions.Get(actor).Confirmations.GetSummaryStats(timeutil.Now()))
}

func (h *LandlordHandler) OpenDialog(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	store := h.Sessions.Get(actor).Confirmations

	if err := store.OpenDialog(mux.Vars(r)["id"]); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.State(timeutil.Now()))
}

func (h *LandlordHandler) CloseDialog(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	store := h.Sessions.Get(actor).Confirmations

	store.CloseDialog()
	writeJSON(w, http.StatusOK, store.State(timeutil.Now()))
}

// Confirm accepts or rejects one pending payment
func (h *LandlordHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	store := h.Sessions.Get(actor).Confirmations

	msg, err := store.ConfirmPayment(r.Context(), mux.Vars(r)["id"], req.Action, req.Reason)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": msg,
		"state":   store.State(timeutil.Now()),
	})
}

// ListPayments lists all payments visible to the landlord
func (h *LandlordHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(w, r); !ok {
		return
	}

	q := r.URL.Query()
	filter := models.PaymentFilter{
		UnitID:     q.Get("unit_id"),
		PropertyID: q.Get("property_id"),
		Status:     models.PaymentStatus(q.Get("status")),
		Method:     models.PaymentMethod(q.Get("payment_method")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	if filter.Method != "" && !filter.Method.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid payment method")
		return
	}
	if start, err := timeutil.ParseDate(q.Get("start_date")); err == nil {
		filter.StartDate = &start
	}
	if end, err := timeutil.ParseDate(q.Get("end_date")); err == nil {
		filter.EndDate = &end
	}
	filter.Limit, filter.Offset = paging(r)

	payments, err := h.Payments.ListPayments(r.Context(), filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
