package services

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cast"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/schedule"
	"rentflow-backend/internal/timeutil"
)

// CurrencyCode prefixes every rendered amount
const CurrencyCode = "TZS"

// The formatters below turn upstream JSON objects into view models. They read
// snake_case keys and their camelCase equivalents, so feeding a formatted value
// back through its formatter yields the same value. Missing or malformed
// fields become zero values; they never panic.

// FormatCurrency renders an amount as "TZS 150,000". Anything that is not a
// number, including nil, renders as "TZS 0".
func FormatCurrency(amount interface{}) string {
	v := toFloat(amount)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	v = math.Round(v*100) / 100
	return CurrencyCode + " " + humanize.CommafWithDigits(v, 2)
}

func FormatPaymentForDisplay(raw map[string]interface{}) models.Payment {
	p := models.Payment{
		ID:              str(raw, "id", "payment_id", "paymentId"),
		UnitID:          str(raw, "unit_id", "unitId"),
		Amount:          num(raw, "amount"),
		PaymentMethod:   paymentMethod(lookup(raw, "payment_method", "paymentMethod", "method")),
		Status:          paymentStatus(lookup(raw, "status")),
		Notes:           str(raw, "notes"),
		TransactionID:   str(raw, "transaction_id", "transactionId"),
		RejectionReason: str(raw, "rejection_reason", "rejectionReason"),
		CreatedAt:       date(raw, "created_at", "createdAt"),
	}
	p.ConfirmationDeadline = optionalDate(raw, "confirmation_deadline", "confirmationDeadline")
	return p
}

// FormatPendingPaymentForDisplay shapes a queue entry. The derived day counts
// depend on the current time and are filled in by the confirmation store.
func FormatPendingPaymentForDisplay(raw map[string]interface{}) models.PendingPayment {
	p := models.PendingPayment{
		Payment:      FormatPaymentForDisplay(raw),
		TenantName:   str(raw, "tenant_name", "tenantName"),
		TenantPhone:  str(raw, "tenant_phone", "tenantPhone"),
		PropertyName: str(raw, "property_name", "propertyName"),
		UnitName:     str(raw, "unit_name", "unitName"),
		PaymentDate:  date(raw, "payment_date", "paymentDate"),
		PeriodStart:  date(raw, "period_start", "periodStart"),
		PeriodEnd:    date(raw, "period_end", "periodEnd"),
	}
	if p.PaymentMethod == models.MethodUnknown {
		// the queue only ever holds manual payments
		p.PaymentMethod = models.MethodManual
	}
	return p
}

func FormatOccupancyForDisplay(raw map[string]interface{}) models.Occupancy {
	o := models.Occupancy{
		UnitID:           str(raw, "unit_id", "unitId"),
		UnitName:         str(raw, "unit_name", "unitName"),
		PropertyID:       str(raw, "property_id", "propertyId"),
		PropertyName:     str(raw, "property_name", "propertyName"),
		FloorNumber:      integer(raw, "floor_number", "floorNumber"),
		RentAmount:       num(raw, "rent_amount", "rentAmount"),
		PaymentFrequency: frequency(lookup(raw, "payment_frequency", "paymentFrequency")),
		StartDate:        date(raw, "start_date", "startDate"),
		EndDate:          optionalDate(raw, "end_date", "endDate"),
		Status:           models.OccupancyActive,
	}

	switch status := models.OccupancyStatus(strings.ToLower(str(raw, "status"))); {
	case status == models.OccupancyActive || status == models.OccupancyEnded:
		o.Status = status
	case lookup(raw, "is_active", "isActive") != nil:
		if !cast.ToBool(lookup(raw, "is_active", "isActive")) {
			o.Status = models.OccupancyEnded
		}
	}
	return o
}

// FormatScheduleEntryForDisplay falls back to counting days since the due
// date when the backend leaves out days_overdue on an unpaid entry.
func FormatScheduleEntryForDisplay(raw map[string]interface{}) models.RentScheduleEntry {
	e := models.RentScheduleEntry{
		ID:          str(raw, "id"),
		UnitID:      str(raw, "unit_id", "unitId"),
		DueDate:     date(raw, "due_date", "dueDate"),
		PeriodStart: date(raw, "period_start", "periodStart"),
		PeriodEnd:   date(raw, "period_end", "periodEnd"),
		RentAmount:  num(raw, "rent_amount", "rentAmount", "amount"),
		IsPaid:      cast.ToBool(lookup(raw, "is_paid", "isPaid")),
		DaysOverdue: integer(raw, "days_overdue", "daysOverdue"),
		PaymentID:   str(raw, "payment_id", "paymentId"),
	}
	if lookup(raw, "days_overdue", "daysOverdue") == nil && !e.IsPaid && !e.DueDate.IsZero() {
		e.DaysOverdue = schedule.ComputeDaysOverdue(e.DueDate, timeutil.Now())
	}
	return e
}

func FormatWalletForDisplay(raw map[string]interface{}) models.PartnerWallet {
	w := models.PartnerWallet{
		Balance:        num(raw, "balance", "available_balance"),
		PendingBalance: num(raw, "pending_balance", "pendingBalance"),
		TotalEarned:    num(raw, "total_earned", "totalEarned"),
		TotalWithdrawn: num(raw, "total_withdrawn", "totalWithdrawn"),
		MinimumPayout:  num(raw, "minimum_payout", "minimumPayout"),
		Currency:       strings.ToUpper(str(raw, "currency")),
	}
	if w.Currency == "" {
		w.Currency = CurrencyCode
	}
	return w
}

func FormatPayoutForDisplay(raw map[string]interface{}) models.Payout {
	status := models.PayoutStatus(strings.ToLower(str(raw, "status")))
	if !status.Valid() {
		status = models.PayoutPending
	}
	return models.Payout{
		ID:            str(raw, "id"),
		Amount:        num(raw, "amount"),
		Status:        status,
		Method:        paymentMethod(lookup(raw, "payment_method", "method")),
		AccountNumber: str(raw, "account_number", "accountNumber"),
		Notes:         str(raw, "notes"),
		CreatedAt:     date(raw, "created_at", "createdAt"),
		ProcessedAt:   optionalDate(raw, "processed_at", "processedAt"),
	}
}

// formatResult reads a submission response
func formatResult(raw map[string]interface{}) models.PaymentResult {
	res := models.PaymentResult{
		Success:       true,
		PaymentID:     str(raw, "payment_id", "paymentId", "id"),
		TransactionID: str(raw, "transaction_id", "transactionId"),
		Message:       str(raw, "message", "detail"),
	}
	if v := lookup(raw, "success"); v != nil {
		res.Success = cast.ToBool(v)
	}
	return res
}

// lookup returns the first non-nil value among keys
func lookup(raw map[string]interface{}, keys ...string) interface{} {
	if raw == nil {
		return nil
	}
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(raw map[string]interface{}, keys ...string) string {
	v := lookup(raw, keys...)
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func num(raw map[string]interface{}, keys ...string) float64 {
	return toFloat(lookup(raw, keys...))
}

func toFloat(v interface{}) float64 {
	if s, ok := v.(string); ok {
		v = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return f
}

func integer(raw map[string]interface{}, keys ...string) int {
	return int(math.Trunc(num(raw, keys...)))
}

func paymentMethod(v interface{}) models.PaymentMethod {
	m := models.PaymentMethod(strings.ToLower(cast.ToString(v)))
	if !m.Valid() {
		return models.MethodUnknown
	}
	return m
}

func paymentStatus(v interface{}) models.PaymentStatus {
	s := models.PaymentStatus(strings.ToLower(cast.ToString(v)))
	if !s.Valid() {
		return models.PaymentPending
	}
	return s
}

func frequency(v interface{}) models.PaymentFrequency {
	f := models.PaymentFrequency(strings.ToLower(cast.ToString(v)))
	if !f.Valid() {
		return models.FrequencyMonthly
	}
	return f
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	timeutil.DateTimeLayout,
	timeutil.DateLayout,
}

// date parses the first present key. Values without a zone are read as EAT
// and every parsed value is returned in EAT.
func date(raw map[string]interface{}, keys ...string) time.Time {
	switch v := lookup(raw, keys...).(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}
		}
		return v.In(timeutil.EAT)
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			t, err := time.ParseInLocation(layout, s, timeutil.EAT)
			if err != nil {
				continue
			}
			if t.IsZero() {
				return time.Time{}
			}
			return t.In(timeutil.EAT)
		}
	}
	return time.Time{}
}

func optionalDate(raw map[string]interface{}, keys ...string) *time.Time {
	t := date(raw, keys...)
	if t.IsZero() {
		return nil
	}
	return &t
}
