package dashboard

import (
	"time"

	"github.com/klokku/ecosystem/pkg/calendar"
	"github.com/klokku/ecosystem/pkg/notice"
)

// AccessNotice is raised when the required calendar is not visible to the session.
var AccessNotice = notice.Rule{
	Keyword:  "",
	Severity: notice.SeverityWarning,
	Message:  "You do not have access to the EcoSystem calendar.",
}

// View is one aggregation cycle rendered for the dashboard.
type View struct {
	HasAccess   bool
	Notices     []notice.ActiveNotice
	Today       []calendar.Event
	Events      []calendar.Event
	WindowStart time.Time
	WindowEnd   time.Time
	BuiltAt     time.Time
}
