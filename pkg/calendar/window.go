package calendar

import "time"

const rangeSeparator = " – "

type DisplayFormat struct {
	DateLayout string
	TimeLayout string
	Location   *time.Location
}

func (f DisplayFormat) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

func StartOfDay(t time.Time, location *time.Location) time.Time {
	day := t.In(location)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, location)
}

// DayWindow returns the half-open window covering the calendar day of t.
func DayWindow(t time.Time, location *time.Location) (time.Time, time.Time) {
	start := StartOfDay(t, location)
	return start, start.AddDate(0, 0, 1)
}

// MonthWindow spans from the first day of the month monthsBefore months before
// now up to, but excluding, the first day of the month after the one
// monthsAfter months ahead.
func MonthWindow(now time.Time, location *time.Location, monthsBefore, monthsAfter int) (time.Time, time.Time) {
	local := now.In(location)
	from := time.Date(local.Year(), local.Month()-time.Month(monthsBefore), 1, 0, 0, 0, 0, location)
	to := time.Date(local.Year(), local.Month()+time.Month(monthsAfter)+1, 1, 0, 0, 0, 0, location)
	return from, to
}

// FilterActive keeps the events active in [from, to), preserving order.
func FilterActive(events []Event, from, to time.Time) []Event {
	active := make([]Event, 0, len(events))
	for _, e := range events {
		if e.ActiveDuring(from, to) {
			active = append(active, e)
		}
	}
	return active
}
