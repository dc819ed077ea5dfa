package timeutil

import (
	"math"
	"time"
)

// EAT is East Africa Time (UTC+3), the zone rent due dates are expressed in.
var EAT *time.Location

func init() {
	var err error
	EAT, err = time.LoadLocation("Africa/Dar_es_Salaam")
	if err != nil {
		// Fallback: fixed zone if tzdata is not available
		EAT = time.FixedZone("EAT", 3*60*60)
	}
}

const Day = 24 * time.Hour

// Now returns the current time in EAT
func Now() time.Time {
	return time.Now().In(EAT)
}

// ToEAT converts any time to EAT
func ToEAT(t time.Time) time.Time {
	return t.In(EAT)
}

// ParseDate parses a YYYY-MM-DD date at midnight EAT
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, EAT)
}

// StartOfDay returns the start of day (00:00:00) in EAT for the given time
func StartOfDay(t time.Time) time.Time {
	e := t.In(EAT)
	return time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, EAT)
}

// EndOfDay returns the end of day (23:59:59) in EAT for the given time
func EndOfDay(t time.Time) time.Time {
	e := t.In(EAT)
	return time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 999999999, EAT)
}

// SameDay reports whether a and b fall on the same EAT calendar day
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// FloorDays returns floor(d / 24h), so -1h is -1 day
func FloorDays(d time.Duration) int {
	return int(math.Floor(float64(d) / float64(Day)))
}

// CeilDays returns ceil(d / 24h)
func CeilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(Day)))
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	MonthLayout    = "2006-01"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
