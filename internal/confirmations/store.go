package confirmations

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/metrics"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/notify"
	"rentflow-backend/internal/services"
	"rentflow-backend/internal/timeutil"
)

// PaymentSource is the landlord side of the upstream payments API
type PaymentSource interface {
	ListPendingManualPayments(ctx context.Context) ([]models.PendingPayment, error)
	ConfirmManualPayment(ctx context.Context, paymentID string, action models.ConfirmAction, reason string) (string, error)
}

// AuditLogger records workflow decisions
type AuditLogger interface {
	Record(ctx context.Context, entry *models.AuditEntry) error
}

type Option func(*Store)

func WithAudit(a AuditLogger) Option {
	return func(s *Store) { s.audit = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is one landlord's queue of manual payments awaiting accept/reject
type Store struct {
	source   PaymentSource
	notifier notify.Notifier
	audit    AuditLogger
	actor    models.Actor
	now      func() time.Time

	mu          sync.Mutex
	generation  uint64
	payments    []models.PendingPayment
	filters     models.PendingFilters
	loading     bool
	submitting  bool
	err         string
	dialogOpen  bool
	selectedID  string
	lastFetched *time.Time
}

func NewStore(source PaymentSource, notifier notify.Notifier, actor models.Actor, opts ...Option) *Store {
	s := &Store{
		source:   source,
		notifier: notifier,
		actor:    actor,
		now:      timeutil.Now,
		filters:  models.DefaultPendingFilters(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.Discard{}
	}
	return s
}

// FetchPendingPayments reloads the queue. On failure the list is emptied and
// a toast is sent. A fetch overtaken by a newer one is dropped.
func (s *Store) FetchPendingPayments(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	s.mu.Unlock()

	payments, err := s.source.ListPendingManualPayments(ctx)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("pending_payments").Inc()
		return nil
	}
	s.loading = false

	if err != nil {
		s.payments = nil
		s.err = apperrors.Message(err)
		s.mu.Unlock()
		log.Printf("[Confirmations] user %s: failed to load pending payments: %v", s.actor.UserID, err)
		s.notifier.Notify(s.actor.UserID, notify.Failure("Could not load pending payments", err))
		return err
	}

	now := s.now()
	for i := range payments {
		payments[i] = Derive(payments[i], now)
	}
	s.payments = payments
	s.err = ""
	s.lastFetched = &now
	if s.selectedID != "" && s.findLocked(s.selectedID) == nil {
		s.dialogOpen, s.selectedID = false, ""
	}
	s.mu.Unlock()
	return nil
}

// Derive fills in the day counts of a pending payment as of now
func Derive(p models.PendingPayment, now time.Time) models.PendingPayment {
	p.DaysPending = 0
	if !p.CreatedAt.IsZero() {
		p.DaysPending = timeutil.FloorDays(now.Sub(p.CreatedAt))
	}
	p.DaysUntilDeadline = nil
	p.IsOverdue = false
	if p.ConfirmationDeadline != nil {
		days := timeutil.FloorDays(p.ConfirmationDeadline.Sub(now))
		p.DaysUntilDeadline = &days
		p.IsOverdue = now.After(*p.ConfirmationDeadline)
	}
	return p
}

// ValidatePaymentConfirmation checks a decision before anything is sent
// upstream. The backend re-validates; this only saves a round trip.
func ValidatePaymentConfirmation(payment *models.PendingPayment, action models.ConfirmAction, reason string) error {
	if payment == nil {
		return apperrors.Wrap("payment_id", apperrors.ErrPaymentNotFound)
	}
	if !action.Valid() {
		return apperrors.Invalid("action", "action must be accept or reject")
	}
	if !payment.Status.CanTransitionTo(action.ResultingStatus()) {
		return apperrors.Wrap("status", apperrors.ErrPaymentNotPending)
	}
	if action == models.ActionReject && len([]rune(strings.TrimSpace(reason))) < models.MinRejectionReasonLength {
		return apperrors.Invalid("rejection_reason", "rejection reason must be at least %d characters", models.MinRejectionReasonLength)
	}
	return nil
}

// ConfirmPayment accepts or rejects a pending payment. On success the dialog
// closes and the queue is refetched from upstream.
func (s *Store) ConfirmPayment(ctx context.Context, paymentID string, action models.ConfirmAction, reason string) (string, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return "", apperrors.ErrSubmissionInProgress
	}
	payment := s.findLocked(paymentID)
	if err := ValidatePaymentConfirmation(payment, action, reason); err != nil {
		s.err = err.Error()
		s.mu.Unlock()
		metrics.ConfirmationDecisionsTotal.WithLabelValues(string(action), metrics.OutcomeRejected).Inc()
		return "", err
	}
	target := *payment
	s.submitting = true
	s.err = ""
	s.mu.Unlock()

	msg, err := s.source.ConfirmManualPayment(ctx, paymentID, action, strings.TrimSpace(reason))

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.err = apperrors.Message(err)
		s.mu.Unlock()
		metrics.ConfirmationDecisionsTotal.WithLabelValues(string(action), metrics.OutcomeFailure).Inc()
		log.Printf("[Confirmations] user %s: %s payment %s failed: %v", s.actor.UserID, action, paymentID, err)
		s.notifier.Notify(s.actor.UserID, notify.Failure("Could not update payment", err))
		return "", err
	}
	s.dialogOpen = false
	s.selectedID = ""
	s.mu.Unlock()

	metrics.ConfirmationDecisionsTotal.WithLabelValues(string(action), metrics.OutcomeSuccess).Inc()
	log.Printf("[Confirmations] user %s: %s payment %s (%s)", s.actor.UserID, action, paymentID, services.FormatCurrency(target.Amount))
	s.notifier.Notify(s.actor.UserID, notify.Success(decisionTitle(action), msg))
	s.recordAudit(ctx, target, action, reason)

	// authoritative refresh instead of editing the list locally
	if err := s.FetchPendingPayments(ctx); err != nil {
		log.Printf("[Confirmations] user %s: refetch after %s failed: %v", s.actor.UserID, action, err)
	}
	return msg, nil
}

// OpenDialog selects a queued payment for a decision
func (s *Store) OpenDialog(paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(paymentID) == nil {
		return apperrors.Wrap("payment_id", apperrors.ErrPaymentNotFound)
	}
	s.dialogOpen = true
	s.selectedID = paymentID
	return nil
}

func (s *Store) CloseDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialogOpen = false
	s.selectedID = ""
}

// SetFilters replaces the search/filter/sort selection. Empty fields take
// their defaults.
func (s *Store) SetFilters(f models.PendingFilters) error {
	defaults := models.DefaultPendingFilters()
	f.Search = strings.TrimSpace(f.Search)
	if f.DateRange == "" {
		f.DateRange = defaults.DateRange
	}
	if f.SortKey == "" {
		f.SortKey = defaults.SortKey
	}
	if f.SortOrder == "" {
		f.SortOrder = defaults.SortOrder
	}
	if !f.DateRange.Valid() {
		return apperrors.Invalid("dateRange", "date range must be today, week, month or all")
	}
	if !f.SortKey.Valid() {
		return apperrors.Invalid("sortKey", "unsupported sort key %q", f.SortKey)
	}
	if !f.SortOrder.Valid() {
		return apperrors.Invalid("sortOrder", "sort order must be asc or desc")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	return nil
}

// GetFilteredPayments applies the current filters as of now
func (s *Store) GetFilteredPayments(now time.Time) []models.PendingPayment {
	s.mu.Lock()
	payments := append([]models.PendingPayment(nil), s.payments...)
	filters := s.filters
	s.mu.Unlock()

	for i := range payments {
		payments[i] = Derive(payments[i], now)
	}
	return FilterPayments(payments, filters, now)
}

// GetSummaryStats summarizes the whole queue, ignoring filters
func (s *Store) GetSummaryStats(now time.Time) models.SummaryStats {
	s.mu.Lock()
	payments := append([]models.PendingPayment(nil), s.payments...)
	s.mu.Unlock()

	for i := range payments {
		payments[i] = Derive(payments[i], now)
	}
	return Summarize(payments, now)
}

// State is a snapshot with the filtered list and the summary
func (s *Store) State(now time.Time) models.ConfirmationState {
	filtered := s.GetFilteredPayments(now)
	summary := s.GetSummaryStats(now)

	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ConfirmationState{
		Payments:    filtered,
		Filters:     s.filters,
		Summary:     summary,
		Loading:     s.loading,
		Submitting:  s.submitting,
		Error:       s.err,
		DialogOpen:  s.dialogOpen,
		SelectedID:  s.selectedID,
		LastFetched: s.lastFetched,
	}
}

func (s *Store) findLocked(id string) *models.PendingPayment {
	for i := range s.payments {
		if s.payments[i].ID == id {
			return &s.payments[i]
		}
	}
	return nil
}

func (s *Store) recordAudit(ctx context.Context, p models.PendingPayment, action models.ConfirmAction, reason string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditEntry{
		EventType: models.AuditPaymentAccepted,
		ActorID:   s.actor.UserID,
		ActorRole: s.actor.Role,
		PaymentID: p.ID,
		UnitID:    p.UnitID,
		Amount:    p.Amount,
	}
	if action == models.ActionReject {
		entry.EventType = models.AuditPaymentRejected
		entry.Reason = strings.TrimSpace(reason)
	}
	if err := s.audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("[Confirmations] audit write failed for user %s: %v", s.actor.UserID, err)
	}
}

func decisionTitle(action models.ConfirmAction) string {
	if action == models.ActionReject {
		return "Payment rejected"
	}
	return "Payment confirmed"
}
