package flow

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/metrics"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/notify"
	"rentflow-backend/internal/receipts"
	"rentflow-backend/internal/services"
	"rentflow-backend/internal/timeutil"
)

// PaymentGateway submits tenant payments upstream
type PaymentGateway interface {
	RecordManualPayment(ctx context.Context, unit *models.Occupancy, amount float64, notes, idempotencyKey string) (*models.PaymentResult, error)
	ProcessSystemPayment(ctx context.Context, unit *models.Occupancy, amount float64, accountNumber string, provider models.Provider, idempotencyKey string) (*models.PaymentResult, error)
}

// AuditLogger records workflow decisions
type AuditLogger interface {
	Record(ctx context.Context, entry *models.AuditEntry) error
}

// Option configures a Controller
type Option func(*Controller)

func WithAudit(a AuditLogger) Option {
	return func(c *Controller) { c.audit = a }
}

func WithArchive(a receipts.Archive) Option {
	return func(c *Controller) { c.archive = a }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller walks one tenant through select -> form -> success|error.
// Upstream calls are made without holding the lock.
type Controller struct {
	gateway  PaymentGateway
	notifier notify.Notifier
	audit    AuditLogger
	archive  receipts.Archive
	actor    models.Actor
	now      func() time.Time

	mu             sync.Mutex
	step           models.FlowStep
	unit           *models.Occupancy
	method         models.FlowMethod
	form           models.PaymentForm
	submitting     bool
	err            string
	errKind        apperrors.Kind
	tx             *models.Transaction
	idempotencyKey string
	generation     uint64
}

func NewController(gateway PaymentGateway, notifier notify.Notifier, actor models.Actor, opts ...Option) *Controller {
	c := &Controller{
		gateway:  gateway,
		notifier: notifier,
		actor:    actor,
		now:      timeutil.Now,
		step:     models.StepSelect,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = notify.Discard{}
	}
	return c
}

// State returns a snapshot of the flow
func (c *Controller) State() models.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() models.FlowState {
	s := models.FlowState{
		Step:      c.step,
		Method:    c.method,
		Form:      c.form,
		Loading:   c.submitting,
		Error:     c.err,
		ErrorKind: string(c.errKind),
		Providers: append([]models.Provider(nil), models.Providers...),
	}
	if c.unit != nil {
		u := *c.unit
		s.SelectedUnit = &u
	}
	if c.tx != nil {
		tx := *c.tx
		s.CurrentTransaction = &tx
	}
	return s
}

// SelectUnit picks the occupancy to pay for. Only allowed on the select step.
func (c *Controller) SelectUnit(unit models.Occupancy) (models.FlowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != models.StepSelect {
		return c.stateLocked(), apperrors.ErrInvalidTransition
	}
	if strings.TrimSpace(unit.UnitID) == "" {
		return c.stateLocked(), apperrors.Required("unit_id")
	}
	c.unit = &unit
	c.err, c.errKind = "", ""
	return c.stateLocked(), nil
}

// SelectMethod chooses record or pay and moves to the form with the amount
// pre-filled from the unit's rent.
func (c *Controller) SelectMethod(method models.FlowMethod) (models.FlowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != models.StepSelect {
		return c.stateLocked(), apperrors.ErrInvalidTransition
	}
	if !method.Valid() {
		return c.stateLocked(), apperrors.Invalid("method", "method must be record or pay")
	}

	c.method = method
	c.form = models.PaymentForm{}
	if c.unit != nil {
		c.form.Amount = c.unit.RentAmount
	}
	if c.idempotencyKey == "" {
		c.idempotencyKey = uuid.NewString()
	}
	c.step = models.StepForm
	return c.stateLocked(), nil
}

// FormUpdate carries the fields being edited; nil fields are left unchanged
type FormUpdate struct {
	Amount        *float64
	Notes         *string
	AccountNumber *string
	Provider      *string
}

func (c *Controller) UpdateForm(update FormUpdate) (models.FlowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != models.StepForm || c.submitting {
		return c.stateLocked(), apperrors.ErrInvalidTransition
	}

	form := c.form
	if update.Amount != nil {
		if *update.Amount < 0 {
			return c.stateLocked(), apperrors.Invalid("amount", "amount cannot be negative")
		}
		form.Amount = *update.Amount
	}
	if update.Notes != nil {
		form.Notes = *update.Notes
	}
	if update.AccountNumber != nil {
		form.AccountNumber = strings.TrimSpace(*update.AccountNumber)
	}
	if update.Provider != nil {
		if *update.Provider == "" {
			form.Provider = ""
		} else {
			p, ok := models.ParseProvider(*update.Provider)
			if !ok {
				return c.stateLocked(), apperrors.Invalid("provider", "unsupported provider %q", *update.Provider)
			}
			form.Provider = p
		}
	}
	c.form = form
	return c.stateLocked(), nil
}

// Submit sends the form upstream. It returns an error only when it did
// nothing: no unit selected, a submission already in flight, or the flow is
// not on the form step. Upstream and validation failures move the flow to
// the error step and are reported in the returned state.
func (c *Controller) Submit(ctx context.Context) (models.FlowState, error) {
	c.mu.Lock()
	if c.unit == nil {
		defer c.mu.Unlock()
		return c.stateLocked(), apperrors.ErrNoUnitSelected
	}
	if c.submitting {
		defer c.mu.Unlock()
		return c.stateLocked(), apperrors.ErrSubmissionInProgress
	}
	if c.step != models.StepForm {
		defer c.mu.Unlock()
		return c.stateLocked(), apperrors.ErrInvalidTransition
	}

	c.submitting = true
	c.err, c.errKind = "", ""
	c.generation++
	gen := c.generation
	unit := *c.unit
	method := c.method
	form := c.form
	key := c.idempotencyKey
	c.mu.Unlock()

	var (
		res *models.PaymentResult
		err error
	)
	switch method {
	case models.FlowRecord:
		res, err = c.gateway.RecordManualPayment(ctx, &unit, form.Amount, form.Notes, key)
	case models.FlowPay:
		res, err = c.gateway.ProcessSystemPayment(ctx, &unit, form.Amount, form.AccountNumber, form.Provider, key)
	default:
		err = apperrors.Invalid("method", "method must be record or pay")
	}

	c.mu.Lock()
	if gen != c.generation {
		// reset while in flight
		state := c.stateLocked()
		c.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("payment_flow").Inc()
		log.Printf("[Flow] user %s: dropped submit result for unit %s after reset (err=%v)", c.actor.UserID, unit.UnitID, err)
		return state, nil
	}
	c.submitting = false

	if err != nil {
		appErr := apperrors.Classify(err)
		c.step = models.StepError
		c.err = appErr.Message
		c.errKind = appErr.Kind
		state := c.stateLocked()
		c.mu.Unlock()

		metrics.PaymentSubmissionsTotal.WithLabelValues(string(method), metrics.OutcomeFailure).Inc()
		log.Printf("[Flow] user %s: %s payment for unit %s failed (%s): %v", c.actor.UserID, method, unit.UnitID, appErr.Kind, err)
		c.notifier.Notify(c.actor.UserID, notify.Failure("Payment failed", err))
		return state, nil
	}

	tx := &models.Transaction{
		Amount:        form.Amount,
		UnitID:        unit.UnitID,
		UnitName:      unit.UnitName,
		PropertyName:  unit.PropertyName,
		Method:        method,
		PaymentID:     res.PaymentID,
		TransactionID: res.TransactionID,
		SubmittedAt:   c.now(),
	}
	if method == models.FlowPay {
		tx.Provider = form.Provider
	} else {
		tx.Notes = strings.TrimSpace(form.Notes)
	}
	c.tx = tx
	c.step = models.StepSuccess
	c.idempotencyKey = ""
	state := c.stateLocked()
	c.mu.Unlock()

	metrics.PaymentSubmissionsTotal.WithLabelValues(string(method), metrics.OutcomeSuccess).Inc()
	log.Printf("[Flow] user %s: %s payment of %s for unit %s accepted (payment=%s tx=%s)",
		c.actor.UserID, method, services.FormatCurrency(tx.Amount), unit.UnitID, tx.PaymentID, tx.TransactionID)
	c.notifier.Notify(c.actor.UserID, notify.Success("Payment submitted", successMessage(tx)))
	c.recordAudit(ctx, tx, key)
	return state, nil
}

// Back returns from the form to the select step and clears the method
func (c *Controller) Back() (models.FlowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != models.StepForm || c.submitting {
		return c.stateLocked(), apperrors.ErrInvalidTransition
	}
	c.step = models.StepSelect
	c.method = ""
	c.form = models.PaymentForm{}
	return c.stateLocked(), nil
}

// TryAgain returns from the error step to the form, keeping what was typed
// and the idempotency key
func (c *Controller) TryAgain() (models.FlowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != models.StepError {
		return c.stateLocked(), apperrors.ErrInvalidTransition
	}
	c.step = models.StepForm
	c.err, c.errKind = "", ""
	return c.stateLocked(), nil
}

// StartOver goes back to the select step from a terminal step, keeping the unit
func (c *Controller) StartOver() (models.FlowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != models.StepError && c.step != models.StepSuccess {
		return c.stateLocked(), apperrors.ErrInvalidTransition
	}
	c.step = models.StepSelect
	c.method = ""
	c.form = models.PaymentForm{}
	c.err, c.errKind = "", ""
	c.tx = nil
	c.idempotencyKey = ""
	return c.stateLocked(), nil
}

// Reset clears everything including the selected unit. A submission still in
// flight has its result dropped.
func (c *Controller) Reset() models.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.step = models.StepSelect
	c.unit = nil
	c.method = ""
	c.form = models.PaymentForm{}
	c.submitting = false
	c.err, c.errKind = "", ""
	c.tx = nil
	c.idempotencyKey = ""
	return c.stateLocked()
}

// IdempotencyKey is the key the next submission will carry
func (c *Controller) IdempotencyKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idempotencyKey
}

// Receipt renders the current transaction as a PDF and archives it when an
// archive is configured. Archive failures are logged, not returned.
func (c *Controller) Receipt(ctx context.Context) ([]byte, string, error) {
	c.mu.Lock()
	if c.tx == nil {
		c.mu.Unlock()
		return nil, "", apperrors.ErrNoTransaction
	}
	tx := *c.tx
	c.mu.Unlock()

	data, err := receipts.Render(&tx)
	if err != nil {
		return nil, "", err
	}
	number := receipts.Number(&tx)

	if c.archive != nil {
		if err := c.archive.Put(ctx, receipts.Key(c.actor.UserID, number), data); err != nil {
			log.Printf("[Flow] receipt archive failed for user %s: %v", c.actor.UserID, err)
		}
	}
	return data, number, nil
}

func (c *Controller) recordAudit(ctx context.Context, tx *models.Transaction, key string) {
	if c.audit == nil {
		return
	}

	event := models.AuditManualRecorded
	if tx.Method == models.FlowPay {
		event = models.AuditSystemInitiated
	}
	entry := &models.AuditEntry{
		EventType:      event,
		ActorID:        c.actor.UserID,
		ActorRole:      c.actor.Role,
		PaymentID:      tx.PaymentID,
		UnitID:         tx.UnitID,
		Amount:         tx.Amount,
		IdempotencyKey: key,
	}
	if err := c.audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("[Flow] audit write failed for user %s: %v", c.actor.UserID, err)
	}
}

func successMessage(tx *models.Transaction) string {
	amount := services.FormatCurrency(tx.Amount)
	if tx.Method == models.FlowRecord {
		return amount + " recorded for " + tx.UnitName + ". Your landlord will confirm it."
	}
	return amount + " payment started for " + tx.UnitName + "."
}

// IsNoop reports whether err means a flow action was refused without any effect
func IsNoop(err error) bool {
	return errors.Is(err, apperrors.ErrNoUnitSelected) ||
		errors.Is(err, apperrors.ErrSubmissionInProgress) ||
		errors.Is(err, apperrors.ErrInvalidTransition)
}
