package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/klokku/ecosystem/pkg/credential"
)

var ErrStubUnavailable = errors.New("calendar unavailable")

// ProviderStub serves canned calendars. Tokens marked rejected get
// credential.ErrCredentialRejected from every call.
type ProviderStub struct {
	mu          sync.Mutex
	calendars   []Descriptor
	events      map[string][]RawEvent
	failing     map[string]bool
	rejected    map[string]bool
	listErr     error
	listCalls   int
	eventsCalls map[string]int
	queries     []Query
}

func NewProviderStub() *ProviderStub {
	return &ProviderStub{
		events:      make(map[string][]RawEvent),
		failing:     make(map[string]bool),
		rejected:    make(map[string]bool),
		eventsCalls: make(map[string]int),
	}
}

func (p *ProviderStub) ListCalendars(ctx context.Context, cred credential.Credential) ([]Descriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	if p.rejected[cred.AccessToken] {
		return nil, fmt.Errorf("listing calendars: %w", credential.ErrCredentialRejected)
	}
	if p.listErr != nil {
		return nil, p.listErr
	}
	return append([]Descriptor(nil), p.calendars...), nil
}

func (p *ProviderStub) ListEvents(ctx context.Context, cred credential.Credential, calendarID string, q Query) ([]RawEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventsCalls[calendarID]++
	p.queries = append(p.queries, q)
	if p.rejected[cred.AccessToken] {
		return nil, fmt.Errorf("listing events: %w", credential.ErrCredentialRejected)
	}
	if p.failing[calendarID] {
		return nil, ErrStubUnavailable
	}
	return append([]RawEvent(nil), p.events[calendarID]...), nil
}

// Helper methods for tests

func (p *ProviderStub) AddCalendar(cal Descriptor, events ...RawEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calendars = append(p.calendars, cal)
	p.events[cal.ID] = append(p.events[cal.ID], events...)
}

func (p *ProviderStub) SetFailing(calendarID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing[calendarID] = true
}

func (p *ProviderStub) Reject(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected[token] = true
}

func (p *ProviderStub) SetListError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listErr = err
}

func (p *ProviderStub) ListCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listCalls
}

func (p *ProviderStub) EventsCalls(calendarID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eventsCalls[calendarID]
}

func (p *ProviderStub) Queries() []Query {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Query(nil), p.queries...)
}
