package services

import (
	"net/url"
	"strconv"
	"strings"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/timeutil"
)

// Upstream API paths
const (
	pathRecordManual   = "/api/v1/payments/rent/manual/record/"
	pathProcessSystem  = "/api/v1/payments/rent/system/process/"
	pathPendingManual  = "/api/v1/payments/rent/manual/pending/"
	pathConfirmManual  = "/api/v1/payments/rent/manual/confirm/"
	pathRentSchedule   = "/api/v1/payments/rent/schedule/"
	pathOccupancies    = "/api/v1/payments/rent/tenant/occupancy/"
	pathTenantHistory  = "/api/v1/payments/rent/tenant/history/"
	pathPayments       = "/api/v1/payments/"
	pathPartnerWallet  = "/api/v1/partners/wallet/"
	pathPartnerPayouts = "/api/v1/partners/payouts/"
	pathRequestPayout  = "/api/v1/partners/payouts/request/"
)

func confirmPath(paymentID string) string {
	return pathConfirmManual + url.PathEscape(paymentID) + "/"
}

// ScheduleQuery builds the rent schedule query string. Empty values are left out.
func ScheduleQuery(f models.ScheduleFilter) url.Values {
	q := url.Values{}
	if id := strings.TrimSpace(f.UnitID); id != "" {
		q.Set("unit_id", id)
	}
	if f.PaidOnly {
		q.Set("paid_only", "true")
	}
	if f.OverdueOnly {
		q.Set("overdue_only", "true")
	}
	return q
}

// PaymentQuery builds the payment listing query string. Empty values are left out.
func PaymentQuery(f models.PaymentFilter) url.Values {
	q := url.Values{}
	setIf(q, "unit_id", f.UnitID)
	setIf(q, "property_id", f.PropertyID)
	setIf(q, "status", string(f.Status))
	setIf(q, "payment_method", string(f.Method))
	if f.StartDate != nil {
		q.Set("start_date", f.StartDate.In(timeutil.EAT).Format(timeutil.DateLayout))
	}
	if f.EndDate != nil {
		q.Set("end_date", f.EndDate.In(timeutil.EAT).Format(timeutil.DateLayout))
	}
	setPage(q, f.Limit, f.Offset)
	return q
}

// PayoutQuery builds the payout listing query string. Empty values are left out.
func PayoutQuery(f models.PayoutFilter) url.Values {
	q := url.Values{}
	setIf(q, "status", string(f.Status))
	setPage(q, f.Limit, f.Offset)
	return q
}

func setIf(q url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		q.Set(key, v)
	}
}

func setPage(q url.Values, limit, offset int) {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
}

// listFrom unwraps a list response. The upstream returns either a bare array,
// an object keyed by the resource name, or a paginated {"results": [...]}.
func listFrom(body interface{}, keys ...string) []map[string]interface{} {
	var items []interface{}
	switch v := body.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		for _, k := range append(keys, "results", "data") {
			if list, ok := v[k].([]interface{}); ok {
				items = list
				break
			}
		}
	}

	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// objectFrom unwraps a single-object response, optionally nested under key
func objectFrom(body interface{}, key string) map[string]interface{} {
	m, _ := body.(map[string]interface{})
	if nested, ok := m[key].(map[string]interface{}); ok {
		return nested
	}
	return m
}
