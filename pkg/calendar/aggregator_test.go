package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/klokku/ecosystem/pkg/auth_retry"
	"github.com/klokku/ecosystem/pkg/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	windowFrom = time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	windowTo   = time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
)

func eventIDs(events []Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestAggregator_FetchEvents(t *testing.T) {
	family := Descriptor{ID: "family", Name: "Family", Color: "#fff"}
	work := Descriptor{ID: "work", Name: "Work"}
	sports := Descriptor{ID: "sports", Name: "Sports"}

	t.Run("failing calendar does not hide the others", func(t *testing.T) {
		provider := NewProviderStub()
		provider.AddCalendar(family,
			RawEvent{ID: "f1", Start: date("2026-03-10")},
			RawEvent{ID: "f2", Start: dateTime("2026-03-11T10:00:00Z")})
		provider.AddCalendar(work, RawEvent{ID: "w1", Start: date("2026-03-12")})
		provider.AddCalendar(sports, RawEvent{ID: "s1", Start: date("2026-03-13")})
		provider.SetFailing("work")
		aggregator := NewAggregator(provider, auth_retry.NewSourceStub(&credential.Credential{AccessToken: "valid"}), time.UTC, 250, 8)

		events := aggregator.FetchEvents(context.Background(), []Descriptor{family, work, sports}, windowFrom, windowTo)

		assert.Equal(t, []string{"f1", "f2", "s1"}, eventIDs(events))
		assert.Equal(t, "#fff", events[0].CalendarColor)
		assert.Equal(t, "Sports", events[2].CalendarName)
	})

	t.Run("zero calendars yield no events", func(t *testing.T) {
		aggregator := NewAggregator(NewProviderStub(), auth_retry.NewSourceStub(&credential.Credential{AccessToken: "valid"}), time.UTC, 250, 8)

		events := aggregator.FetchEvents(context.Background(), nil, windowFrom, windowTo)

		assert.Empty(t, events)
	})

	t.Run("records without start are dropped", func(t *testing.T) {
		provider := NewProviderStub()
		provider.AddCalendar(family, RawEvent{ID: "ok", Start: date("2026-03-10")}, RawEvent{ID: "broken"})
		aggregator := NewAggregator(provider, auth_retry.NewSourceStub(&credential.Credential{AccessToken: "valid"}), time.UTC, 250, 8)

		events := aggregator.FetchEvents(context.Background(), []Descriptor{family}, windowFrom, windowTo)

		assert.Equal(t, []string{"ok"}, eventIDs(events))
	})

	t.Run("query carries the window and result limit", func(t *testing.T) {
		provider := NewProviderStub()
		provider.AddCalendar(family)
		aggregator := NewAggregator(provider, auth_retry.NewSourceStub(&credential.Credential{AccessToken: "valid"}), time.UTC, 50, 8)

		aggregator.FetchEvents(context.Background(), []Descriptor{family}, windowFrom, windowTo)

		queries := provider.Queries()
		require.Len(t, queries, 1)
		assert.Equal(t, Query{From: windowFrom, To: windowTo, MaxResults: 50}, queries[0])
	})

	t.Run("rejected fetch is retried inline with the renewed credential", func(t *testing.T) {
		provider := NewProviderStub()
		provider.AddCalendar(family, RawEvent{ID: "f1", Start: date("2026-03-10")})
		provider.Reject("expired")
		src := auth_retry.NewSourceStub(&credential.Credential{AccessToken: "expired"}, credential.Credential{AccessToken: "renewed"})
		aggregator := NewAggregator(provider, src, time.UTC, 250, 1)

		events := aggregator.FetchEvents(context.Background(), []Descriptor{family}, windowFrom, windowTo)

		assert.Equal(t, []string{"f1"}, eventIDs(events))
		assert.Equal(t, 2, provider.EventsCalls("family"))
		assert.Equal(t, 1, src.SilentCalls())
	})

	t.Run("calendar rejected after retry contributes nothing", func(t *testing.T) {
		provider := NewProviderStub()
		provider.AddCalendar(family, RawEvent{ID: "f1", Start: date("2026-03-10")})
		provider.AddCalendar(work, RawEvent{ID: "w1", Start: date("2026-03-10")})
		provider.Reject("expired")
		aggregator := NewAggregator(provider, auth_retry.NewSourceStub(&credential.Credential{AccessToken: "expired"}), time.UTC, 250, 8)

		events := aggregator.FetchEvents(context.Background(), []Descriptor{family, work}, windowFrom, windowTo)

		assert.Empty(t, events)
		assert.Equal(t, 1, provider.EventsCalls("family"))
		assert.Equal(t, 1, provider.EventsCalls("work"))
	})
}
