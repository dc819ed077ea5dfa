package models

import "time"

// PaymentFrequency is how often rent falls due for an occupancy
type PaymentFrequency string

const (
	FrequencyMonthly   PaymentFrequency = "monthly"
	FrequencyQuarterly PaymentFrequency = "quarterly"
	FrequencyBiannual  PaymentFrequency = "biannual"
	FrequencyAnnual    PaymentFrequency = "annual"
)

func (f PaymentFrequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyBiannual, FrequencyAnnual:
		return true
	}
	return false
}

// Months returns the length of one billing period. Unknown frequencies bill monthly.
func (f PaymentFrequency) Months() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencyBiannual:
		return 6
	case FrequencyAnnual:
		return 12
	case FrequencyMonthly:
		return 1
	}
	return 1
}

type OccupancyStatus string

const (
	OccupancyActive OccupancyStatus = "active"
	OccupancyEnded  OccupancyStatus = "ended"
)

// Occupancy is an active or past tenant-to-unit assignment. It is created by the
// landlord upstream and is read-only here.
type Occupancy struct {
	UnitID           string           `json:"unitId"`
	UnitName         string           `json:"unitName"`
	PropertyID       string           `json:"propertyId"`
	PropertyName     string           `json:"propertyName"`
	FloorNumber      int              `json:"floorNumber"`
	RentAmount       float64          `json:"rentAmount"`
	PaymentFrequency PaymentFrequency `json:"paymentFrequency"`
	StartDate        time.Time        `json:"startDate"`
	EndDate          *time.Time       `json:"endDate,omitempty"`
	Status           OccupancyStatus  `json:"status"`
}

func (o *Occupancy) IsActive() bool {
	return o.Status == OccupancyActive
}

// BillingPeriod returns the rent period a payment made on the given day covers:
// it starts that day and ends the day before the same date one period later.
func (o *Occupancy) BillingPeriod(from time.Time) (time.Time, time.Time) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := start.AddDate(0, o.PaymentFrequency.Months(), -1)
	return start, end
}
