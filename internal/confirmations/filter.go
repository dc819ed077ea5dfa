package confirmations

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/timeutil"
)

// UrgentAfterDays marks a payment urgent once it has waited this long
const UrgentAfterDays = 2

// FilterPayments applies search, date range and sort. Payments must already
// carry derived fields.
func FilterPayments(payments []models.PendingPayment, f models.PendingFilters, now time.Time) []models.PendingPayment {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.PendingPayment, 0, len(payments))
	for _, p := range payments {
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		if !inRange(p.CreatedAt, f.DateRange, now) {
			continue
		}
		out = append(out, p)
	}

	sortPayments(out, f.SortKey, f.SortOrder)
	return out
}

func matchesSearch(p models.PendingPayment, search string) bool {
	return strings.Contains(strings.ToLower(p.TenantName), search) ||
		strings.Contains(strings.ToLower(p.PropertyName), search) ||
		strings.Contains(strings.ToLower(p.UnitName), search)
}

// inRange: today is the same EAT calendar day, week and month are the last
// 7 and 30 days
func inRange(createdAt time.Time, r models.DateRange, now time.Time) bool {
	switch r {
	case models.RangeToday:
		return timeutil.SameDay(createdAt, now)
	case models.RangeWeek:
		return !createdAt.Before(now.AddDate(0, 0, -7))
	case models.RangeMonth:
		return !createdAt.Before(now.AddDate(0, 0, -30))
	case models.RangeAll, "":
		return true
	}
	return true
}

func sortPayments(payments []models.PendingPayment, key models.SortKey, order models.SortOrder) {
	desc := order == models.SortDesc
	sort.SliceStable(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]

		// payments without a deadline always sort last
		if key == models.SortConfirmationDeadline && (a.ConfirmationDeadline == nil) != (b.ConfirmationDeadline == nil) {
			return a.ConfirmationDeadline != nil
		}

		c := compare(a, b, key)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b models.PendingPayment, key models.SortKey) int {
	switch key {
	case models.SortAmount:
		return compareFloat(a.Amount, b.Amount)
	case models.SortDaysPending:
		return a.DaysPending - b.DaysPending
	case models.SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case models.SortPaymentDate:
		return a.PaymentDate.Compare(b.PaymentDate)
	case models.SortConfirmationDeadline:
		if a.ConfirmationDeadline == nil || b.ConfirmationDeadline == nil {
			return 0
		}
		return a.ConfirmationDeadline.Compare(*b.ConfirmationDeadline)
	case models.SortTenantName:
		return strings.Compare(strings.ToLower(a.TenantName), strings.ToLower(b.TenantName))
	case models.SortPropertyName:
		return strings.Compare(strings.ToLower(a.PropertyName), strings.ToLower(b.PropertyName))
	case models.SortUnitName:
		return strings.Compare(strings.ToLower(a.UnitName), strings.ToLower(b.UnitName))
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Summarize computes the queue header over every payment given
func Summarize(payments []models.PendingPayment, now time.Time) models.SummaryStats {
	stats := models.SummaryStats{TotalPending: len(payments)}
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(decimal.NewFromFloat(p.Amount))
		if p.DaysPending >= UrgentAfterDays {
			stats.UrgentCount++
		}
		if p.IsOverdue {
			stats.OverdueCount++
		}
		if timeutil.SameDay(p.CreatedAt, now) {
			stats.TodayCount++
		}
	}
	stats.TotalAmount = total.InexactFloat64()
	return stats
}
