package flow

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/notify"
	"rentflow-backend/internal/timeutil"
)

type call struct {
	method   string
	amount   float64
	notes    string
	account  string
	provider models.Provider
	key      string
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []call
	err   error
	block chan struct{}
}

func (g *fakeGateway) record(c call) error {
	g.mu.Lock()
	g.calls = append(g.calls, c)
	block := g.block
	err := g.err
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (g *fakeGateway) RecordManualPayment(ctx context.Context, unit *models.Occupancy, amount float64, notes, key string) (*models.PaymentResult, error) {
	if err := g.record(call{method: "record", amount: amount, notes: notes, key: key}); err != nil {
		return nil, err
	}
	return &models.PaymentResult{Success: true, PaymentID: "101"}, nil
}

func (g *fakeGateway) ProcessSystemPayment(ctx context.Context, unit *models.Occupancy, amount float64, account string, provider models.Provider, key string) (*models.PaymentResult, error) {
	if err := g.record(call{method: "pay", amount: amount, account: account, provider: provider, key: key}); err != nil {
		return nil, err
	}
	return &models.PaymentResult{Success: true, TransactionID: key}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []notify.Toast
}

func (n *recordingNotifier) Notify(userID string, t notify.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, t)
}

func (n *recordingNotifier) last() notify.Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.toasts) == 0 {
		return notify.Toast{}
	}
	return n.toasts[len(n.toasts)-1]
}

type memoryAudit struct {
	entries []*models.AuditEntry
}

func (a *memoryAudit) Record(ctx context.Context, e *models.AuditEntry) error {
	a.entries = append(a.entries, e)
	return nil
}

type memoryArchive struct {
	keys []string
}

func (a *memoryArchive) Put(ctx context.Context, key string, data []byte) error {
	a.keys = append(a.keys, key)
	return nil
}

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, timeutil.EAT)

func rentUnit() models.Occupancy {
	return models.Occupancy{
		UnitID:           "7",
		UnitName:         "A2",
		PropertyID:       "1",
		PropertyName:     "Mikocheni Court",
		RentAmount:       150000,
		PaymentFrequency: models.FrequencyMonthly,
		Status:           models.OccupancyActive,
	}
}

func newController(gw *fakeGateway, opts ...Option) (*Controller, *recordingNotifier) {
	n := &recordingNotifier{}
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	return NewController(gw, n, models.Actor{UserID: "tenant-1", Role: "tenant"}, opts...), n
}

// must fails the test when a flow action returns an error
func must(t *testing.T) func(models.FlowState, error) models.FlowState {
	t.Helper()
	return func(s models.FlowState, err error) models.FlowState {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return s
	}
}

func TestRecordPaymentWithEmptyNotes(t *testing.T) {
	gw := &fakeGateway{}
	audit := &memoryAudit{}
	c, n := newController(gw, WithAudit(audit))

	must(t)(c.SelectUnit(rentUnit()))
	s := must(t)(c.SelectMethod(models.FlowRecord))
	if s.Step != models.StepForm || s.Form.Amount != 150000 {
		t.Fatalf("expected form with rent pre-filled, got %+v", s)
	}

	s = must(t)(c.Submit(context.Background()))
	if s.Step != models.StepSuccess {
		t.Fatalf("Step = %s, want success (error %q)", s.Step, s.Error)
	}
	if s.CurrentTransaction == nil || s.CurrentTransaction.Amount != 150000 {
		t.Fatalf("unexpected transaction %+v", s.CurrentTransaction)
	}
	if s.CurrentTransaction.PaymentID != "101" || s.CurrentTransaction.UnitName != "A2" {
		t.Errorf("transaction should echo payment id and unit name, got %+v", s.CurrentTransaction)
	}
	if !s.CurrentTransaction.SubmittedAt.Equal(fixedNow) {
		t.Errorf("SubmittedAt = %v", s.CurrentTransaction.SubmittedAt)
	}
	if gw.calls[0].notes != "" || gw.calls[0].key == "" {
		t.Errorf("unexpected call %+v", gw.calls[0])
	}
	if n.last().Type != notify.ToastSuccess {
		t.Errorf("expected a success toast, got %+v", n.last())
	}
	if len(audit.entries) != 1 || audit.entries[0].EventType != models.AuditManualRecorded || audit.entries[0].ActorID != "tenant-1" {
		t.Errorf("unexpected audit entries %+v", audit.entries)
	}
	if c.IdempotencyKey() != "" {
		t.Error("idempotency key should be cleared after success")
	}
}

func TestPayWithProvider(t *testing.T) {
	gw := &fakeGateway{}
	c, _ := newController(gw)

	must(t)(c.SelectUnit(rentUnit()))
	must(t)(c.SelectMethod(models.FlowPay))
	account, provider := "0712345678", "mpesa"
	s := must(t)(c.UpdateForm(FormUpdate{AccountNumber: &account, Provider: &provider}))
	if s.Form.Provider != models.ProviderMpesa {
		t.Fatalf("Provider = %q, want Mpesa", s.Form.Provider)
	}

	s = must(t)(c.Submit(context.Background()))
	if s.Step != models.StepSuccess || s.CurrentTransaction.Provider != models.ProviderMpesa {
		t.Fatalf("unexpected state %+v", s)
	}
	if gw.calls[0].account != "0712345678" || gw.calls[0].amount != 150000 {
		t.Errorf("unexpected call %+v", gw.calls[0])
	}
}

func TestUpdateFormRejectsUnknownProvider(t *testing.T) {
	c, _ := newController(&fakeGateway{})
	must(t)(c.SelectUnit(rentUnit()))
	must(t)(c.SelectMethod(models.FlowPay))

	bad := "Vodacom"
	_, err := c.UpdateForm(FormUpdate{Provider: &bad})
	var valErr *apperrors.ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "provider" {
		t.Errorf("expected provider validation error, got %v", err)
	}
}

func TestSubmitWithoutUnitIsNoop(t *testing.T) {
	gw := &fakeGateway{}
	c, _ := newController(gw)
	must(t)(c.SelectMethod(models.FlowRecord))
	before := c.State()

	after, err := c.Submit(context.Background())
	if !errors.Is(err, apperrors.ErrNoUnitSelected) {
		t.Fatalf("err = %v, want ErrNoUnitSelected", err)
	}
	if gw.callCount() != 0 {
		t.Error("no upstream call expected")
	}
	if after.Step != before.Step || after.Loading || after.Error != "" {
		t.Errorf("state changed: before %+v after %+v", before, after)
	}
}

func TestSubmitWhileInFlight(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{})}
	c, _ := newController(gw)
	must(t)(c.SelectUnit(rentUnit()))
	must(t)(c.SelectMethod(models.FlowRecord))

	done := make(chan models.FlowState)
	go func() {
		s, _ := c.Submit(context.Background())
		done <- s
	}()

	deadline := time.Now().Add(2 * time.Second)
	for gw.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first submit never reached the gateway")
		}
		time.Sleep(time.Millisecond)
	}
	if !c.State().Loading {
		t.Error("expected loading while in flight")
	}

	if _, err := c.Submit(context.Background()); !errors.Is(err, apperrors.ErrSubmissionInProgress) {
		t.Errorf("second submit err = %v, want ErrSubmissionInProgress", err)
	}

	close(gw.block)
	if s := <-done; s.Step != models.StepSuccess {
		t.Errorf("first submit ended in %s", s.Step)
	}
	if gw.callCount() != 1 {
		t.Errorf("expected exactly one upstream call, got %d", gw.callCount())
	}
}

func TestFailureThenTryAgainReusesKey(t *testing.T) {
	gw := &fakeGateway{err: errors.New("Insufficient funds")}
	c, n := newController(gw)
	must(t)(c.SelectUnit(rentUnit()))
	must(t)(c.SelectMethod(models.FlowRecord))

	s := must(t)(c.Submit(context.Background()))
	if s.Step != models.StepError || s.ErrorKind != string(apperrors.KindPayment) || s.Error == "" {
		t.Fatalf("unexpected state %+v", s)
	}
	if n.last().Type != notify.ToastError {
		t.Errorf("expected an error toast, got %+v", n.last())
	}

	s = must(t)(c.TryAgain())
	if s.Step != models.StepForm || s.Error != "" || s.Form.Amount != 150000 {
		t.Fatalf("unexpected state after TryAgain %+v", s)
	}

	gw.mu.Lock()
	gw.err = nil
	gw.mu.Unlock()
	must(t)(c.Submit(context.Background()))

	if gw.calls[0].key != gw.calls[1].key {
		t.Errorf("retry should reuse the idempotency key: %q vs %q", gw.calls[0].key, gw.calls[1].key)
	}
}

func TestStartOverKeepsUnit(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection refused")}
	c, _ := newController(gw)
	must(t)(c.SelectUnit(rentUnit()))
	must(t)(c.SelectMethod(models.FlowRecord))
	firstKey := c.IdempotencyKey()
	must(t)(c.Submit(context.Background()))

	s := must(t)(c.StartOver())
	if s.Step != models.StepSelect || s.Method != "" || s.SelectedUnit == nil {
		t.Fatalf("unexpected state %+v", s)
	}
	must(t)(c.SelectMethod(models.FlowRecord))
	if c.IdempotencyKey() == firstKey {
		t.Error("start over should issue a new idempotency key")
	}
}

func TestBackAndReset(t *testing.T) {
	c, _ := newController(&fakeGateway{})
	must(t)(c.SelectUnit(rentUnit()))
	must(t)(c.SelectMethod(models.FlowPay))

	s := must(t)(c.Back())
	if s.Step != models.StepSelect || s.Method != "" || s.SelectedUnit == nil {
		t.Fatalf("unexpected state after Back %+v", s)
	}
	if _, err := c.Back(); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Errorf("Back from select err = %v, want ErrInvalidTransition", err)
	}

	s = c.Reset()
	if s.Step != models.StepSelect || s.SelectedUnit != nil {
		t.Fatalf("unexpected state after Reset %+v", s)
	}
}

func TestResetDropsInFlightResult(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{})}
	c, _ := newController(gw)
	must(t)(c.SelectUnit(rentUnit()))
	must(t)(c.SelectMethod(models.FlowRecord))

	done := make(chan struct{})
	go func() {
		c.Submit(context.Background())
		close(done)
	}()
	for gw.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	c.Reset()
	close(gw.block)
	<-done

	s := c.State()
	if s.Step != models.StepSelect || s.CurrentTransaction != nil || s.SelectedUnit != nil {
		t.Errorf("stale submit result leaked into state %+v", s)
	}
}

func TestReceipt(t *testing.T) {
	archive := &memoryArchive{}
	c, _ := newController(&fakeGateway{}, WithArchive(archive))

	if _, _, err := c.Receipt(context.Background()); !errors.Is(err, apperrors.ErrNoTransaction) {
		t.Fatalf("err = %v, want ErrNoTransaction", err)
	}

	must(t)(c.SelectUnit(rentUnit()))
	must(t)(c.SelectMethod(models.FlowRecord))
	must(t)(c.Submit(context.Background()))

	data, number, err := c.Receipt(context.Background())
	if err != nil {
		t.Fatalf("Receipt: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) || number != "RF-20240315-101" {
		t.Errorf("unexpected receipt %q (%d bytes)", number, len(data))
	}
	if len(archive.keys) != 1 || archive.keys[0] != "receipts/tenant-1/RF-20240315-101.pdf" {
		t.Errorf("unexpected archive keys %v", archive.keys)
	}
}
