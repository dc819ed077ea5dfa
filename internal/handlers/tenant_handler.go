package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/flow"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/schedule"
	"rentflow-backend/internal/session"
	"rentflow-backend/internal/timeutil"
)

// TenantHandler serves the tenant dashboard and the payment flow
type TenantHandler struct {
	Sessions *session.Registry
	Backend  session.TenantBackend
}

func NewTenantHandler(sessions *session.Registry, backend session.TenantBackend) *TenantHandler {
	return &TenantHandler{Sessions: sessions, Backend: backend}
}

type selectUnitRequest struct {
	UnitID string `json:"unitId" validate:"required"`
}

type selectMethodRequest struct {
	Method models.FlowMethod `json:"method" validate:"required,oneof=record pay"`
}

type updateFormRequest struct {
	Amount        *float64 `json:"amount" validate:"omitempty,gte=0"`
	Notes         *string  `json:"notes" validate:"omitempty,max=500"`
	AccountNumber *string  `json:"accountNumber" validate:"omitempty,max=64"`
	Provider      *string  `json:"provider"`
}

func (h *TenantHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return nil, false
	}
	return h.Sessions.Get(actor), true
}

// Dashboard refreshes and returns occupancies, schedule buckets and history
func (h *TenantHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.Dashboard.Refresh(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Dashboard.Snapshot(timeutil.Now()))
}

// PaymentHistory lists the tenant's payments grouped by month
func (h *TenantHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(w, r); !ok {
		return
	}

	q := r.URL.Query()
	filter := models.PaymentFilter{
		UnitID:     q.Get("unit_id"),
		PropertyID: q.Get("property_id"),
		Status:     models.PaymentStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", filter.Status))
		return
	}
	filter.Limit, filter.Offset = paging(r)

	payments, err := h.Backend.ListPaymentHistory(r.Context(), filter)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"months":   schedule.GroupPaymentsByMonth(payments),
	})
}

// FlowState returns the payment flow without changing it
func (h *TenantHandler) FlowState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Flow.State())
}

// SelectUnit picks an occupancy by id from the tenant's current list
func (h *TenantHandler) SelectUnit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectUnitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	occupancies := sess.Dashboard.Occupancies()
	if len(occupancies) == 0 {
		var err error
		occupancies, err = h.Backend.GetOccupancies(r.Context())
		if err != nil {
			writeAppError(w, err)
			return
		}
	}

	unitID := strings.TrimSpace(req.UnitID)
	for _, occ := range occupancies {
		if occ.UnitID == unitID {
			h.respondFlow(w, func() (models.FlowState, error) { return sess.Flow.SelectUnit(occ) })
			return
		}
	}
	writeError(w, http.StatusNotFound, "Unit not found among your occupancies")
}

func (h *TenantHandler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectMethodRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.respondFlow(w, func() (models.FlowState, error) { return sess.Flow.SelectMethod(req.Method) })
}

func (h *TenantHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req updateFormRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.respondFlow(w, func() (models.FlowState, error) {
		return sess.Flow.UpdateForm(flow.FormUpdate{
			Amount:        req.Amount,
			Notes:         req.Notes,
			AccountNumber: req.AccountNumber,
			Provider:      req.Provider,
		})
	})
}

// Submit sends the form upstream. Upstream failures come back as a 200 with
// the flow on its error step. The payment call outlives a client disconnect
// and is bounded by the upstream client's timeout instead.
func (h *TenantHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	h.respondFlow(w, func() (models.FlowState, error) { return sess.Flow.Submit(ctx) })
}

func (h *TenantHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondFlow(w, sess.Flow.Back)
}

func (h *TenantHandler) TryAgain(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondFlow(w, sess.Flow.TryAgain)
}

func (h *TenantHandler) StartOver(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondFlow(w, sess.Flow.StartOver)
}

func (h *TenantHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Flow.Reset())
}

// Receipt streams the PDF receipt of the last successful submission
func (h *TenantHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	data, number, err := sess.Flow.Receipt(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", number+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *TenantHandler) respondFlow(w http.ResponseWriter, op func() (models.FlowState, error)) {
	state, err := op()
	if err != nil {
		status, kind := statusFor(err)
		if !flow.IsNoop(err) && kind != apperrors.KindValidation {
			writeAppError(w, err)
			return
		}
		writeJSON(w, status, struct {
			errorResponse
			State models.FlowState `json:"state"`
		}{errorResponse{Error: apperrors.Message(err), Kind: kind}, state})
		return
	}
	writeJSON(w, http.StatusOK, state)
}
