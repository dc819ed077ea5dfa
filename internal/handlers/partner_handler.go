package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/notify"
	"rentflow-backend/internal/services"
	"rentflow-backend/internal/session"
)

// PartnerBackend is the upstream wallet and payout API
type PartnerBackend interface {
	GetWallet(ctx context.Context) (*models.PartnerWallet, error)
	ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]models.Payout, error)
	RequestPayout(ctx context.Context, req models.PayoutRequest) (*models.Payout, error)
}

type PartnerHandler struct {
	Backend  PartnerBackend
	Notifier notify.Notifier
	Audit    session.AuditLogger
}

// NewPartnerHandler builds the handler; audit may be nil
func NewPartnerHandler(backend PartnerBackend, notifier notify.Notifier, audit session.AuditLogger) *PartnerHandler {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &PartnerHandler{Backend: backend, Notifier: notifier, Audit: audit}
}

type payoutRequest struct {
	Amount        float64              `json:"amount" validate:"gt=0"`
	Method        models.PaymentMethod `json:"method" validate:"required,oneof=mobile_money bank"`
	AccountNumber string               `json:"accountNumber" validate:"required,max=64"`
	Notes         string               `json:"notes" validate:"max=500"`
}

func (h *PartnerHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(w, r); !ok {
		return
	}
	wallet, err := h.Backend.GetWallet(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *PartnerHandler) Payouts(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(w, r); !ok {
		return
	}
	filter := models.PayoutFilter{Status: models.PayoutStatus(r.URL.Query().Get("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid payout status")
		return
	}
	filter.Limit, filter.Offset = paging(r)

	payouts, err := h.Backend.ListPayouts(r.Context(), filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payouts)
}

// RequestPayout withdraws from the wallet after balance checks
func (h *PartnerHandler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req payoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payout, err := h.Backend.RequestPayout(r.Context(), models.PayoutRequest{
		Amount:        req.Amount,
		Method:        req.Method,
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.Notifier.Notify(actor.UserID, notify.Failure("Payout request failed", err))
		writeAppError(w, err)
		return
	}

	log.Printf("[Partner] user %s requested payout %s of %s", actor.UserID, payout.ID, services.FormatCurrency(payout.Amount))
	h.Notifier.Notify(actor.UserID, notify.Success("Payout requested", services.FormatCurrency(payout.Amount)+" will be sent to "+payout.AccountNumber+"."))

	if h.Audit != nil {
		entry := &models.AuditEntry{
			EventType: models.AuditPayoutRequested,
			ActorID:   actor.UserID,
			ActorRole: actor.Role,
			PaymentID: payout.ID,
			Amount:    payout.Amount,
			Reason:    payout.Notes,
		}
		if err := h.Audit.Record(context.WithoutCancel(r.Context()), entry); err != nil {
			log.Printf("[Partner] audit write failed for user %s: %v", actor.UserID, err)
		}
	}

	writeJSON(w, http.StatusCreated, payout)
}
