package trip

import (
	"time"

	db "traveleasy/db/db"
)

// dayKeyLayout is the canonical day key format used in a trip's dias map.
const dayKeyLayout = "2006-01-02"

// DayKey returns the day key of a calendar day.
func DayKey(day time.Time) string {
	return day.Format(dayKeyLayout)
}

// ItineraryDays derives the inclusive calendar day sequence of a
// period: day N is start + N days, up to and including the end date.
// A single-day period (end == start) yields one entry. An inverted
// period yields nil, but such periods are rejected before they are
// ever persisted.
func ItineraryDays(period db.Period) []time.Time {
	start := dateOf(period.Start)
	end := dateOf(period.End)
	if end.Before(start) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// dateOf truncates a timestamp to its calendar day.
func dateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
