package models

import "time"

// RentScheduleEntry is one expected payment period generated upstream for a unit
type RentScheduleEntry struct {
	ID          string    `json:"id"`
	UnitID      string    `json:"unitId"`
	DueDate     time.Time `json:"dueDate"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	RentAmount  float64   `json:"rentAmount"`
	IsPaid      bool      `json:"isPaid"`
	DaysOverdue int       `json:"daysOverdue"`
	PaymentID   string    `json:"paymentId,omitempty"`
}

// ScheduleStatus is the label shown next to a schedule entry
type ScheduleStatus string

const (
	ScheduleStatusPaid     ScheduleStatus = "Paid"
	ScheduleStatusOverdue  ScheduleStatus = "Overdue"
	ScheduleStatusDueToday ScheduleStatus = "Due Today"
	ScheduleStatusDueSoon  ScheduleStatus = "Due Soon"
	ScheduleStatusUpcoming ScheduleStatus = "Upcoming"
)

// ScheduleFilter is the query bag for the rent schedule endpoint
type ScheduleFilter struct {
	UnitID      string
	PaidOnly    bool
	OverdueOnly bool
}
