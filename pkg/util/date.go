package util

import "time"

// IsTradingDay reports whether t falls on a weekday in loc. Exchange
// holidays are not modelled.
func IsTradingDay(t time.Time, loc *time.Location) bool {
	switch t.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// LoadLocation returns the named zone or a fixed UTC+8 fallback when the
// zone database is unavailable.
func LoadLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("CST", 8*3600)
}
