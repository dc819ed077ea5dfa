package confirmations

import (
	"testing"
	"time"

	"rentflow-backend/internal/models"
)

func queue() []models.PendingPayment {
	deadline := now.Add(24 * time.Hour)
	a := pending("a", "Asha Mwakyusa", 300000, now.Add(-time.Hour))
	b := pending("b", "baraka Said", 100000, now.AddDate(0, 0, -3))
	b.PropertyName = "Sinza Flats"
	b.ConfirmationDeadline = &deadline
	c := pending("c", "Chausiku Ali", 200000, now.AddDate(0, 0, -20))
	d := pending("d", "Daudi Kim", 50000, now.AddDate(0, 0, -45))

	out := []models.PendingPayment{a, b, c, d}
	for i := range out {
		out[i] = Derive(out[i], now)
	}
	return out
}

func ids(payments []models.PendingPayment) []string {
	out := make([]string, len(payments))
	for i, p := range payments {
		out[i] = p.ID
	}
	return out
}

func TestFilterPayments(t *testing.T) {
	tests := []struct {
		name    string
		filters models.PendingFilters
		want    []string
	}{
		{"default newest first", models.DefaultPendingFilters(), []string{"a", "b", "c", "d"}},
		{"search tenant case-insensitive", models.PendingFilters{Search: "BARAKA", DateRange: models.RangeAll, SortKey: models.SortCreatedAt, SortOrder: models.SortDesc}, []string{"b"}},
		{"search property", models.PendingFilters{Search: "sinza", DateRange: models.RangeAll, SortKey: models.SortCreatedAt, SortOrder: models.SortDesc}, []string{"b"}},
		{"search unit", models.PendingFilters{Search: "unit c", DateRange: models.RangeAll, SortKey: models.SortCreatedAt, SortOrder: models.SortDesc}, []string{"c"}},
		{"today", models.PendingFilters{DateRange: models.RangeToday, SortKey: models.SortCreatedAt, SortOrder: models.SortDesc}, []string{"a"}},
		{"week", models.PendingFilters{DateRange: models.RangeWeek, SortKey: models.SortCreatedAt, SortOrder: models.SortDesc}, []string{"a", "b"}},
		{"month", models.PendingFilters{DateRange: models.RangeMonth, SortKey: models.SortCreatedAt, SortOrder: models.SortDesc}, []string{"a", "b", "c"}},
		{"amount asc", models.PendingFilters{DateRange: models.RangeAll, SortKey: models.SortAmount, SortOrder: models.SortAsc}, []string{"d", "b", "c", "a"}},
		{"days pending desc", models.PendingFilters{DateRange: models.RangeAll, SortKey: models.SortDaysPending, SortOrder: models.SortDesc}, []string{"d", "c", "b", "a"}},
		{"tenant name asc", models.PendingFilters{DateRange: models.RangeAll, SortKey: models.SortTenantName, SortOrder: models.SortAsc}, []string{"a", "b", "c", "d"}},
		{"deadline asc, missing last", models.PendingFilters{DateRange: models.RangeAll, SortKey: models.SortConfirmationDeadline, SortOrder: models.SortAsc}, []string{"b", "a", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterPayments(queue(), tt.filters, now))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	past := now.Add(-time.Hour)
	overdue := pending("x", "Asha", 0.1, now.Add(-time.Minute))
	overdue.ConfirmationDeadline = &past
	payments := append(queue(), Derive(overdue, now))

	stats := Summarize(payments, now)
	if stats.TotalPending != 5 {
		t.Errorf("TotalPending = %d, want 5", stats.TotalPending)
	}
	if stats.TotalAmount != 650000.1 {
		t.Errorf("TotalAmount = %v, want 650000.1", stats.TotalAmount)
	}
	if stats.UrgentCount != 3 {
		t.Errorf("UrgentCount = %d, want 3", stats.UrgentCount)
	}
	if stats.OverdueCount != 1 {
		t.Errorf("OverdueCount = %d, want 1", stats.OverdueCount)
	}
	if stats.TodayCount != 2 {
		t.Errorf("TodayCount = %d, want 2", stats.TodayCount)
	}
}
