package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/metrics"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/notify"
	"rentflow-backend/internal/timeutil"
)

// Source is what the dashboard reads from
type Source interface {
	GetOccupancies(ctx context.Context) ([]models.Occupancy, error)
	GetRentSchedule(ctx context.Context, filter models.ScheduleFilter) ([]models.RentScheduleEntry, error)
	ListPaymentHistory(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
}

// EntryView is a schedule entry with its status label
type EntryView struct {
	models.RentScheduleEntry
	Status       models.ScheduleStatus `json:"status"`
	DaysUntilDue int                   `json:"daysUntilDue"`
}

// Snapshot is the tenant dashboard at a point in time
type Snapshot struct {
	Occupancies      []models.Occupancy `json:"occupancies"`
	Schedule         []EntryView        `json:"schedule"`
	Upcoming         []EntryView        `json:"upcoming"`
	Overdue          []EntryView        `json:"overdue"`
	Paid             []EntryView        `json:"paid"`
	NextPaymentDue   *EntryView         `json:"nextPaymentDue,omitempty"`
	TotalMonthlyRent float64            `json:"totalMonthlyRent"`
	TotalPaid        float64            `json:"totalPaid"`
	History          []MonthGroup       `json:"history"`
	Loading          bool               `json:"loading"`
	Error            string             `json:"error,omitempty"`
	HistoryError     string             `json:"historyError,omitempty"`
	LastFetched      *time.Time         `json:"lastFetched,omitempty"`
}

// Dashboard holds one tenant's occupancies, schedule and history
type Dashboard struct {
	source   Source
	notifier notify.Notifier
	actor    models.Actor

	mu          sync.Mutex
	generation  uint64
	occupancies []models.Occupancy
	entries     []models.RentScheduleEntry
	payments    []models.Payment
	loading     bool
	err         string
	historyErr  string
	lastFetched *time.Time
}

func NewDashboard(source Source, notifier notify.Notifier, actor models.Actor) *Dashboard {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Dashboard{source: source, notifier: notifier, actor: actor}
}

// Refresh reloads everything. Occupancies and the schedule load together and
// fail together; payment history is loaded alongside but its failure only
// blanks the history. If a newer Refresh starts before this one finishes,
// this one's result is dropped.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.loading = true
	d.mu.Unlock()

	type historyResult struct {
		payments []models.Payment
		err      error
	}
	historyCh := make(chan historyResult, 1)
	go func() {
		payments, err := d.source.ListPaymentHistory(ctx, models.PaymentFilter{})
		historyCh <- historyResult{payments: payments, err: err}
	}()

	var (
		occupancies []models.Occupancy
		entries     []models.RentScheduleEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		occupancies, err = d.source.GetOccupancies(gctx)
		return err
	})
	g.Go(func() (err error) {
		entries, err = d.source.GetRentSchedule(gctx, models.ScheduleFilter{})
		return err
	})
	err := g.Wait()
	history := <-historyCh

	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("dashboard").Inc()
		return nil
	}
	d.loading = false

	if history.err != nil {
		d.payments = nil
		d.historyErr = apperrors.Message(history.err)
		log.Printf("[Dashboard] user %s: failed to load payment history: %v", d.actor.UserID, history.err)
	} else {
		d.payments = history.payments
		d.historyErr = ""
	}

	if err != nil {
		d.occupancies, d.entries = nil, nil
		d.err = apperrors.Message(err)
		d.mu.Unlock()
		log.Printf("[Dashboard] user %s: failed to load rent: %v", d.actor.UserID, err)
		d.notifier.Notify(d.actor.UserID, notify.Failure("Could not load your rent", err))
		return err
	}

	now := timeutil.Now()
	d.occupancies, d.entries = occupancies, entries
	d.err = ""
	d.lastFetched = &now
	d.mu.Unlock()
	return nil
}

// Snapshot derives every bucket as of now
func (d *Dashboard) Snapshot(now time.Time) Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := Snapshot{
		Occupancies:      append([]models.Occupancy(nil), d.occupancies...),
		Schedule:         views(d.entries, now),
		Upcoming:         views(UpcomingRent(d.entries, now), now),
		Overdue:          views(OverdueRent(d.entries), now),
		Paid:             views(PaidRent(d.entries), now),
		TotalMonthlyRent: TotalMonthlyRent(d.occupancies),
		TotalPaid:        TotalPaid(d.payments),
		History:          GroupPaymentsByMonth(d.payments),
		Loading:          d.loading,
		Error:            d.err,
		HistoryError:     d.historyErr,
		LastFetched:      d.lastFetched,
	}
	if next := NextPaymentDue(d.entries); next != nil {
		v := view(*next, now)
		snap.NextPaymentDue = &v
	}
	return snap
}

// Occupancies returns the last loaded occupancies
func (d *Dashboard) Occupancies() []models.Occupancy {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Occupancy(nil), d.occupancies...)
}

func view(e models.RentScheduleEntry, now time.Time) EntryView {
	return EntryView{RentScheduleEntry: e, Status: PaymentStatus(e, now), DaysUntilDue: DaysUntilDue(e, now)}
}

func views(entries []models.RentScheduleEntry, now time.Time) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, view(e, now))
	}
	return out
}
