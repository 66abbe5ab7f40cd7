package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/klokku/ecosystem/pkg/credential"
)

// ErrDirectoryFetch wraps any failure to list the calendars visible to the session.
var ErrDirectoryFetch = errors.New("unable to list calendars")

// Descriptor identifies one calendar visible to the signed-in identity.
type Descriptor struct {
	ID    string
	Name  string
	Color string
}

// Query bounds one windowed event listing. Results are ordered by start and
// recurring events are expanded into single instances.
type Query struct {
	From       time.Time
	To         time.Time
	MaxResults int64
}

// Provider is the calendar data collaborator. Implementations return an error
// wrapping credential.ErrCredentialRejected when the bearer token is not accepted.
type Provider interface {
	ListCalendars(ctx context.Context, cred credential.Credential) ([]Descriptor, error)
	ListEvents(ctx context.Context, cred credential.Credential, calendarID string, q Query) ([]RawEvent, error)
}
