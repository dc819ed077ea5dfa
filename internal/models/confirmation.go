package models

import "time"

// DateRange limits the landlord queue by createdAt
type DateRange string

const (
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeAll   DateRange = "all"
)

func (r DateRange) Valid() bool {
	switch r {
	case RangeToday, RangeWeek, RangeMonth, RangeAll:
		return true
	}
	return false
}

// SortKey is a sortable field of a pending payment
type SortKey string

const (
	SortCreatedAt            SortKey = "createdAt"
	SortPaymentDate          SortKey = "paymentDate"
	SortConfirmationDeadline SortKey = "confirmationDeadline"
	SortAmount               SortKey = "amount"
	SortDaysPending          SortKey = "daysPending"
	SortTenantName           SortKey = "tenantName"
	SortPropertyName         SortKey = "propertyName"
	SortUnitName             SortKey = "unitName"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortCreatedAt, SortPaymentDate, SortConfirmationDeadline, SortAmount,
		SortDaysPending, SortTenantName, SortPropertyName, SortUnitName:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// PendingFilters is the landlord's current search/filter/sort selection
type PendingFilters struct {
	Search    string    `json:"search"`
	DateRange DateRange `json:"dateRange"`
	SortKey   SortKey   `json:"sortKey"`
	SortOrder SortOrder `json:"sortOrder"`
}

// DefaultPendingFilters shows everything, newest first
func DefaultPendingFilters() PendingFilters {
	return PendingFilters{DateRange: RangeAll, SortKey: SortCreatedAt, SortOrder: SortDesc}
}

// SummaryStats is the header row of the confirmation queue
type SummaryStats struct {
	TotalPending int     `json:"totalPending"`
	TotalAmount  float64 `json:"totalAmount"`
	UrgentCount  int     `json:"urgentCount"`
	OverdueCount int     `json:"overdueCount"`
	TodayCount   int     `json:"todayCount"`
}

// ConfirmationState is a snapshot of the landlord's queue
type ConfirmationState struct {
	Payments    []PendingPayment `json:"payments"`
	Filters     PendingFilters   `json:"filters"`
	Summary     SummaryStats     `json:"summary"`
	Loading     bool             `json:"loading"`
	Submitting  bool             `json:"submitting"`
	Error       string           `json:"error,omitempty"`
	DialogOpen  bool             `json:"dialogOpen"`
	SelectedID  string           `json:"selectedPaymentId,omitempty"`
	LastFetched *time.Time       `json:"lastFetched,omitempty"`
}
