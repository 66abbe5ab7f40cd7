package calendar

import (
	"context"
	"time"

	"github.com/klokku/ecosystem/pkg/auth_retry"
	"github.com/klokku/ecosystem/pkg/credential"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Aggregator struct {
	provider       Provider
	source         auth_retry.Source
	location       *time.Location
	maxResults     int64
	maxConcurrency int
}

func NewAggregator(provider Provider, source auth_retry.Source, location *time.Location, maxResults int64, maxConcurrency int) *Aggregator {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Aggregator{
		provider:       provider,
		source:         source,
		location:       location,
		maxResults:     maxResults,
		maxConcurrency: maxConcurrency,
	}
}

// FetchEvents queries every calendar over [from, to) concurrently and merges the
// results in calendar order. A calendar that fails contributes no events.
func (a *Aggregator) FetchEvents(ctx context.Context, calendars []Descriptor, from, to time.Time) []Event {
	slots := make([][]Event, len(calendars))
	query := Query{From: from, To: to, MaxResults: a.maxResults}

	var g errgroup.Group
	g.SetLimit(a.maxConcurrency)
	for i, cal := range calendars {
		g.Go(func() error {
			slots[i] = a.fetchCalendar(ctx, cal, query)
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]Event, 0)
	for _, slot := range slots {
		merged = append(merged, slot...)
	}
	log.Debugf("Aggregated %d events from %d calendars", len(merged), len(calendars))
	return merged
}

func (a *Aggregator) fetchCalendar(ctx context.Context, cal Descriptor, query Query) []Event {
	raw, err := auth_retry.Call(ctx, a.source, func(ctx context.Context, cred credential.Credential) ([]RawEvent, error) {
		return a.provider.ListEvents(ctx, cred, cal.ID, query)
	})
	if err != nil {
		log.Warnf("Unable to fetch events of calendar %q, skipping it: %v", cal.Name, err)
		return nil
	}

	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		if event, ok := Normalize(r, cal, a.location); ok {
			events = append(events, event)
		}
	}
	return events
}
