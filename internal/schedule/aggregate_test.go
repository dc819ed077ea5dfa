package schedule

import (
	"testing"
	"time"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/timeutil"
)

var now = time.Date(2024, 3, 15, 14, 30, 0, 0, timeutil.EAT)

func dueIn(days int) time.Time {
	return timeutil.StartOfDay(now).AddDate(0, 0, days)
}

func TestPaymentStatus(t *testing.T) {
	tests := []struct {
		name  string
		entry models.RentScheduleEntry
		want  models.ScheduleStatus
	}{
		{"due in 3 days", models.RentScheduleEntry{DueDate: dueIn(3)}, models.ScheduleStatusDueSoon},
		{"due in 10 days", models.RentScheduleEntry{DueDate: dueIn(10)}, models.ScheduleStatusUpcoming},
		{"overdue by a day", models.RentScheduleEntry{DueDate: dueIn(-1), DaysOverdue: 1}, models.ScheduleStatusOverdue},
		{"due today", models.RentScheduleEntry{DueDate: dueIn(0)}, models.ScheduleStatusDueToday},
		{"due in 7 days", models.RentScheduleEntry{DueDate: dueIn(7)}, models.ScheduleStatusDueSoon},
		{"paid", models.RentScheduleEntry{DueDate: dueIn(-5), DaysOverdue: 5, IsPaid: true}, models.ScheduleStatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PaymentStatus(tt.entry, now); got != tt.want {
				t.Errorf("PaymentStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuckets(t *testing.T) {
	entries := []models.RentScheduleEntry{
		{ID: "paid", DueDate: dueIn(-30), IsPaid: true},
		{ID: "overdue", DueDate: dueIn(-3), DaysOverdue: 3},
		{ID: "today", DueDate: dueIn(0)},
		{ID: "soon", DueDate: dueIn(5)},
		{ID: "edge", DueDate: dueIn(7)},
		{ID: "later", DueDate: dueIn(20)},
		{ID: "flagged", DueDate: dueIn(2), DaysOverdue: 1},
	}

	upcoming := UpcomingRent(entries, now)
	assertIDs(t, "upcoming", upcoming, "today", "soon", "edge")

	overdue := OverdueRent(entries)
	assertIDs(t, "overdue", overdue, "overdue", "flagged")

	for _, u := range upcoming {
		for _, o := range overdue {
			if u.ID == o.ID {
				t.Errorf("entry %s is both upcoming and overdue", u.ID)
			}
		}
	}

	assertIDs(t, "paid", PaidRent(entries), "paid")

	next := NextPaymentDue(entries)
	if next == nil || next.ID != "overdue" {
		t.Errorf("NextPaymentDue = %+v, want overdue", next)
	}
}

func TestUpcomingMatchesDueSoonLabel(t *testing.T) {
	entries := []models.RentScheduleEntry{
		{ID: "edge-morning", DueDate: dueIn(7)},
		{ID: "edge-afternoon", DueDate: dueIn(7).Add(13 * time.Hour)},
		{ID: "eight", DueDate: dueIn(8)},
	}

	upcoming := UpcomingRent(entries, now)
	assertIDs(t, "upcoming", upcoming, "edge-morning")

	in := make(map[string]bool)
	for _, u := range upcoming {
		in[u.ID] = true
	}
	for _, e := range entries {
		soon := PaymentStatus(e, now) == models.ScheduleStatusDueSoon
		if soon != in[e.ID] {
			t.Errorf("%s: due soon = %v but upcoming = %v", e.ID, soon, in[e.ID])
		}
	}
}

func TestNextPaymentDueNoneUnpaid(t *testing.T) {
	entries := []models.RentScheduleEntry{{ID: "1", IsPaid: true}}
	if next := NextPaymentDue(entries); next != nil {
		t.Errorf("expected nil, got %+v", next)
	}
	if next := NextPaymentDue(nil); next != nil {
		t.Errorf("expected nil for empty schedule, got %+v", next)
	}
}

func TestTotalMonthlyRent(t *testing.T) {
	occupancies := []models.Occupancy{
		{UnitID: "1", RentAmount: 150000, Status: models.OccupancyActive},
		{UnitID: "2", RentAmount: 250000.5, Status: models.OccupancyActive},
		{UnitID: "3", RentAmount: 999999, Status: models.OccupancyEnded},
	}
	if got := TotalMonthlyRent(occupancies); got != 400000.5 {
		t.Errorf("TotalMonthlyRent = %v, want 400000.5", got)
	}
}

func TestTotalPaidAndGroupByMonth(t *testing.T) {
	at := func(month time.Month, day int) time.Time {
		return time.Date(2024, month, day, 10, 0, 0, 0, timeutil.EAT)
	}
	payments := []models.Payment{
		{ID: "a", Amount: 0.1, Status: models.PaymentConfirmed, CreatedAt: at(1, 5)},
		{ID: "b", Amount: 0.2, Status: models.PaymentCompleted, CreatedAt: at(1, 20)},
		{ID: "c", Amount: 500, Status: models.PaymentRejected, CreatedAt: at(2, 1)},
		{ID: "d", Amount: 100, Status: models.PaymentPending, CreatedAt: at(3, 2)},
	}

	if got := TotalPaid(payments); got != 0.3 {
		t.Errorf("TotalPaid = %v, want 0.3", got)
	}

	groups := GroupPaymentsByMonth(payments)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	wantMonths := []string{"2024-03", "2024-02", "2024-01"}
	for i, g := range groups {
		if g.Month != wantMonths[i] {
			t.Errorf("groups[%d].Month = %s, want %s", i, g.Month, wantMonths[i])
		}
	}
	jan := groups[2]
	if jan.Payments[0].ID != "b" || jan.Total != 0.3 {
		t.Errorf("unexpected January group %+v", jan)
	}
	if groups[1].Total != 0 {
		t.Errorf("rejected payments should not count, got %v", groups[1].Total)
	}
}

func TestComputeDaysOverdue(t *testing.T) {
	if got := ComputeDaysOverdue(now.Add(-49*time.Hour), now); got != 2 {
		t.Errorf("ComputeDaysOverdue = %d, want 2", got)
	}
	if got := ComputeDaysOverdue(now.Add(time.Hour), now); got != 0 {
		t.Errorf("future due date should be 0, got %d", got)
	}
}

func assertIDs(t *testing.T, name string, entries []models.RentScheduleEntry, want ...string) {
	t.Helper()
	if len(entries) != len(want) {
		t.Fatalf("%s: got %d entries, want %d", name, len(entries), len(want))
	}
	for i, e := range entries {
		if e.ID != want[i] {
			t.Errorf("%s[%d] = %s, want %s", name, i, e.ID, want[i])
		}
	}
}
