package calendar

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// RawDate is a provider boundary value. Date is set for date-only values,
// DateTime (RFC3339) for values with a time of day.
type RawDate struct {
	Date     string
	DateTime string
}

func (d RawDate) dateOnly() bool {
	return d.DateTime == "" && d.Date != ""
}

func (d RawDate) parse(location *time.Location) (time.Time, bool) {
	if d.DateTime != "" {
		t, err := time.Parse(time.RFC3339, d.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t.In(location), true
	}
	if d.Date != "" {
		t, err := time.ParseInLocation(dateLayout, d.Date, location)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func (d RawDate) String() string {
	if d.DateTime != "" {
		return d.DateTime
	}
	return d.Date
}

type RawEvent struct {
	ID      string
	Summary string
	Start   *RawDate
	End     *RawDate
}

type Event struct {
	ID     string
	Title  string
	AllDay bool
	Start  time.Time
	// End is the raw provider end, exclusive for all-day events. Nil when absent.
	End           *time.Time
	RawStart      string
	RawEnd        string
	CalendarID    string
	CalendarName  string
	CalendarColor string
}

// Normalize converts a raw provider record into an Event. Records without
// usable start information are rejected.
func Normalize(raw RawEvent, cal Descriptor, location *time.Location) (Event, bool) {
	if raw.Start == nil {
		log.Debugf("Dropping event %s without start", raw.ID)
		return Event{}, false
	}
	start, ok := raw.Start.parse(location)
	if !ok {
		log.Debugf("Dropping event %s with malformed start %q", raw.ID, raw.Start.String())
		return Event{}, false
	}

	event := Event{
		ID:            raw.ID,
		Title:         raw.Summary,
		AllDay:        raw.Start.dateOnly() && (raw.End == nil || raw.End.DateTime == ""),
		Start:         start,
		RawStart:      raw.Start.String(),
		CalendarID:    cal.ID,
		CalendarName:  cal.Name,
		CalendarColor: cal.Color,
	}
	if raw.End != nil {
		if end, ok := raw.End.parse(location); ok {
			event.End = &end
			event.RawEnd = raw.End.String()
		}
	}
	return event, true
}

// EffectiveEnd is the last instant the event covers. All-day ends are exclusive
// at the provider, so the effective end is one calendar day earlier.
func (e Event) EffectiveEnd() time.Time {
	if e.End == nil {
		return e.Start
	}
	if !e.AllDay {
		return *e.End
	}
	end := e.End.AddDate(0, 0, -1)
	if end.Before(e.Start) {
		return e.Start
	}
	return end
}

// ActiveDuring reports whether the event overlaps the half-open window [from, to).
func (e Event) ActiveDuring(from, to time.Time) bool {
	return e.Start.Before(to) && !e.EffectiveEnd().Before(from)
}

// Display renders the event period for a human reader.
func (e Event) Display(format DisplayFormat) string {
	location := format.location()
	start := e.Start.In(location)
	end := e.EffectiveEnd().In(location)

	if e.AllDay {
		if sameDay(start, end) {
			return start.Format(format.DateLayout)
		}
		return start.Format(format.DateLayout) + rangeSeparator + end.Format(format.DateLayout)
	}
	if e.End == nil {
		return start.Format(format.TimeLayout)
	}
	if sameDay(start, end) {
		return start.Format(format.TimeLayout) + rangeSeparator + end.Format(format.TimeLayout)
	}
	dateTime := format.DateLayout + " " + format.TimeLayout
	return start.Format(dateTime) + rangeSeparator + end.Format(dateTime)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
