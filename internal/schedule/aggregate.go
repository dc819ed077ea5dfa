package schedule

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/timeutil"
)

// UpcomingWindow is how far ahead an unpaid entry counts as upcoming
const UpcomingWindow = 7

// DaysUntilDue is ceil((dueDate - start of today) / 1 day) in EAT
func DaysUntilDue(entry models.RentScheduleEntry, now time.Time) int {
	return timeutil.CeilDays(entry.DueDate.Sub(timeutil.StartOfDay(now)))
}

// UpcomingRent returns unpaid entries due from the start of today up to
// UpcomingWindow days ahead, earliest first. The window is measured with
// DaysUntilDue so it matches the "Due Soon" label. Overdue entries are never
// upcoming.
func UpcomingRent(entries []models.RentScheduleEntry, now time.Time) []models.RentScheduleEntry {
	today := timeutil.StartOfDay(now)

	var upcoming []models.RentScheduleEntry
	for _, e := range entries {
		if e.IsPaid || e.DaysOverdue > 0 || e.DueDate.Before(today) {
			continue
		}
		if DaysUntilDue(e, now) > UpcomingWindow {
			continue
		}
		upcoming = append(upcoming, e)
	}
	sortByDueDate(upcoming)
	return upcoming
}

// OverdueRent returns unpaid entries with daysOverdue > 0, oldest first
func OverdueRent(entries []models.RentScheduleEntry) []models.RentScheduleEntry {
	var overdue []models.RentScheduleEntry
	for _, e := range entries {
		if !e.IsPaid && e.DaysOverdue > 0 {
			overdue = append(overdue, e)
		}
	}
	sortByDueDate(overdue)
	return overdue
}

// PaidRent returns settled entries, most recent first
func PaidRent(entries []models.RentScheduleEntry) []models.RentScheduleEntry {
	var paid []models.RentScheduleEntry
	for _, e := range entries {
		if e.IsPaid {
			paid = append(paid, e)
		}
	}
	sort.SliceStable(paid, func(i, j int) bool {
		return paid[i].DueDate.After(paid[j].DueDate)
	})
	return paid
}

// PaymentStatus labels one schedule entry
func PaymentStatus(entry models.RentScheduleEntry, now time.Time) models.ScheduleStatus {
	if entry.IsPaid {
		return models.ScheduleStatusPaid
	}
	if entry.DaysOverdue > 0 {
		return models.ScheduleStatusOverdue
	}

	days := DaysUntilDue(entry, now)
	switch {
	case days <= 0:
		return models.ScheduleStatusDueToday
	case days <= UpcomingWindow:
		return models.ScheduleStatusDueSoon
	default:
		return models.ScheduleStatusUpcoming
	}
}

// NextPaymentDue returns the unpaid entry with the earliest due date, or nil
func NextPaymentDue(entries []models.RentScheduleEntry) *models.RentScheduleEntry {
	var next *models.RentScheduleEntry
	for i := range entries {
		e := &entries[i]
		if e.IsPaid {
			continue
		}
		if next == nil || e.DueDate.Before(next.DueDate) {
			next = e
		}
	}
	if next == nil {
		return nil
	}
	found := *next
	return &found
}

// TotalMonthlyRent sums the rent of active occupancies. Schedule entries and
// payment status play no part.
func TotalMonthlyRent(occupancies []models.Occupancy) float64 {
	total := decimal.Zero
	for i := range occupancies {
		if occupancies[i].IsActive() {
			total = total.Add(decimal.NewFromFloat(occupancies[i].RentAmount))
		}
	}
	return total.InexactFloat64()
}

// TotalPaid sums confirmed and completed payments
func TotalPaid(payments []models.Payment) float64 {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status.IsSettled() {
			total = total.Add(decimal.NewFromFloat(p.Amount))
		}
	}
	return total.InexactFloat64()
}

// ComputeDaysOverdue is the number of whole days since dueDate, never negative
func ComputeDaysOverdue(dueDate, now time.Time) int {
	days := timeutil.FloorDays(now.Sub(dueDate))
	if days < 0 {
		return 0
	}
	return days
}

// MonthGroup is one month of payment history
type MonthGroup struct {
	Month    string           `json:"month"`
	Payments []models.Payment `json:"payments"`
	Total    float64          `json:"total"`
}

// GroupPaymentsByMonth buckets payments by their EAT creation month
// (YYYY-MM), newest month first and newest payment first within a month.
// Total only counts settled payments.
func GroupPaymentsByMonth(payments []models.Payment) []MonthGroup {
	byMonth := make(map[string]*MonthGroup)
	sums := make(map[string]decimal.Decimal)
	for _, p := range payments {
		month := p.CreatedAt.In(timeutil.EAT).Format(timeutil.MonthLayout)
		g, ok := byMonth[month]
		if !ok {
			g = &MonthGroup{Month: month}
			byMonth[month] = g
		}
		g.Payments = append(g.Payments, p)
		if p.Status.IsSettled() {
			sums[month] = sums[month].Add(decimal.NewFromFloat(p.Amount))
		}
	}

	groups := make([]MonthGroup, 0, len(byMonth))
	for month, g := range byMonth {
		sort.SliceStable(g.Payments, func(i, j int) bool {
			return g.Payments[i].CreatedAt.After(g.Payments[j].CreatedAt)
		})
		g.Total = sums[month].InexactFloat64()
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Month > groups[j].Month
	})
	return groups
}

func sortByDueDate(entries []models.RentScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DueDate.Before(entries[j].DueDate)
	})
}
