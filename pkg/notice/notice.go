package notice

import (
	"fmt"
	"strings"
	"time"

	"github.com/klokku/ecosystem/pkg/calendar"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityWarning, SeverityInfo, SeveritySuccess, SeverityError:
		return true
	}
	return false
}

// Rule raises Message when an event of the day has Keyword in its title.
type Rule struct {
	Keyword  string
	Severity Severity
	Message  string
}

func NewRule(keyword string, severity Severity, message string) (Rule, error) {
	if keyword == "" {
		return Rule{}, fmt.Errorf("notice rule keyword must not be empty")
	}
	if !severity.Valid() {
		return Rule{}, fmt.Errorf("invalid notice severity %q", severity)
	}
	return Rule{Keyword: keyword, Severity: severity, Message: message}, nil
}

type ActiveNotice struct {
	Rule   Rule
	Active bool
}

// ActiveNotices evaluates every rule against the events active on the day of
// today. Matching is case-sensitive and the result follows rule order.
func ActiveNotices(events []calendar.Event, rules []Rule, today time.Time) []ActiveNotice {
	from, to := calendar.DayWindow(today, today.Location())
	todays := calendar.FilterActive(events, from, to)

	notices := make([]ActiveNotice, 0, len(rules))
	for _, rule := range rules {
		notices = append(notices, ActiveNotice{Rule: rule, Active: matches(todays, rule.Keyword)})
	}
	return notices
}

func matches(events []calendar.Event, keyword string) bool {
	for _, e := range events {
		if strings.Contains(e.Title, keyword) {
			return true
		}
	}
	return false
}

// OnlyActive drops the notices that did not fire.
func OnlyActive(notices []ActiveNotice) []ActiveNotice {
	active := make([]ActiveNotice, 0, len(notices))
	for _, n := range notices {
		if n.Active {
			active = append(active, n)
		}
	}
	return active
}
