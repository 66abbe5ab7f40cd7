package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klokku/ecosystem/internal/utils"
	"github.com/klokku/ecosystem/pkg/auth_retry"
	"github.com/klokku/ecosystem/pkg/calendar"
	"github.com/klokku/ecosystem/pkg/credential"
	"github.com/klokku/ecosystem/pkg/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)

var rules = []notice.Rule{
	{Keyword: "Blaf en Blij", Severity: notice.SeverityWarning, Message: "Blaf en Blij today"},
	{Keyword: "Birthday", Severity: notice.SeveritySuccess, Message: "Someone is celebrating today!"},
}

var (
	family = calendar.Descriptor{ID: "family", Name: "Family"}
	eco    = calendar.Descriptor{ID: "eco", Name: "EcoSystem"}
)

type dashboardTest struct {
	service  *Service
	provider *calendar.ProviderStub
	source   *auth_retry.SourceStub
	cache    *Cache
	clock    *utils.MockClock
}

func setupDashboardTest(t *testing.T, requiredCalendarID string) dashboardTest {
	provider := calendar.NewProviderStub()
	source := auth_retry.NewSourceStub(&credential.Credential{AccessToken: "valid"}, credential.Credential{AccessToken: "renewed"})
	denyList, err := calendar.NewDenyList([]string{"weather"})
	require.NoError(t, err)
	clock := &utils.MockClock{FixedNow: now}
	cache := NewCache()
	service := NewService(
		calendar.NewDirectory(provider, source, denyList),
		calendar.NewAggregator(provider, source, time.UTC, 250, 4),
		clock,
		Settings{RequiredCalendarID: requiredCalendarID, MonthsBefore: 1, MonthsAfter: 1, Location: time.UTC, Rules: rules},
		cache,
	)
	return dashboardTest{service: service, provider: provider, source: source, cache: cache, clock: clock}
}

func allDay(id, title, start, end string) calendar.RawEvent {
	return calendar.RawEvent{ID: id, Summary: title, Start: &calendar.RawDate{Date: start}, End: &calendar.RawDate{Date: end}}
}

func ids(events []calendar.Event) []string {
	result := make([]string, 0, len(events))
	for _, e := range events {
		result = append(result, e.ID)
	}
	return result
}

func TestService_Build(t *testing.T) {
	t.Run("builds today, window events and notices", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.AddCalendar(family,
			allDay("party", "John's Birthday Party", "2026-03-10", "2026-03-11"),
			allDay("trip", "Trip", "2026-03-20", "2026-03-25"),
			calendar.RawEvent{ID: "broken", Summary: "Birthday without start"})
		test.provider.AddCalendar(calendar.Descriptor{ID: "weather", Name: "Weather"}, allDay("rain", "Birthday rain", "2026-03-10", "2026-03-11"))

		view, err := test.service.Build(context.Background())

		require.NoError(t, err)
		assert.True(t, view.HasAccess)
		assert.Equal(t, []string{"party"}, ids(view.Today))
		assert.Equal(t, []string{"party", "trip"}, ids(view.Events))
		require.Len(t, view.Notices, 1)
		assert.Equal(t, "Birthday", view.Notices[0].Rule.Keyword)
		assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), view.WindowStart)
		assert.Equal(t, time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), view.WindowEnd)
		assert.Equal(t, 0, test.provider.EventsCalls("weather"))
	})

	t.Run("missing required calendar is reported", func(t *testing.T) {
		test := setupDashboardTest(t, "eco")
		test.provider.AddCalendar(family)

		view, err := test.service.Build(context.Background())

		require.NoError(t, err)
		assert.False(t, view.HasAccess)
		require.Len(t, view.Notices, 1)
		assert.Equal(t, AccessNotice, view.Notices[0].Rule)
	})

	t.Run("visible required calendar grants access", func(t *testing.T) {
		test := setupDashboardTest(t, "eco")
		test.provider.AddCalendar(eco)

		view, err := test.service.Build(context.Background())

		require.NoError(t, err)
		assert.True(t, view.HasAccess)
		assert.Empty(t, view.Notices)
	})

	t.Run("zero calendars yield no events and no notices", func(t *testing.T) {
		test := setupDashboardTest(t, "")

		view, err := test.service.Build(context.Background())

		require.NoError(t, err)
		assert.Empty(t, view.Events)
		assert.Empty(t, view.Today)
		assert.Empty(t, view.Notices)
	})

	t.Run("directory failure is fatal", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.SetListError(errors.New("connection refused"))

		_, err := test.service.Build(context.Background())

		assert.ErrorIs(t, err, calendar.ErrDirectoryFetch)
	})

	t.Run("failing calendar only removes its own events", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.AddCalendar(family, allDay("party", "Party", "2026-03-10", "2026-03-11"))
		test.provider.AddCalendar(eco, allDay("cleanup", "Cleanup", "2026-03-10", "2026-03-11"))
		test.provider.SetFailing("eco")

		view, err := test.service.Build(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"party"}, ids(view.Events))
	})

	t.Run("rejected credential is renewed once for the whole cycle", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.Reject("valid")
		test.provider.AddCalendar(family, allDay("party", "Party", "2026-03-10", "2026-03-11"))

		view, err := test.service.Build(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"party"}, ids(view.Events))
		assert.Equal(t, 2, test.provider.ListCalls())
		assert.Equal(t, 1, test.provider.EventsCalls("family"))
		assert.Equal(t, 1, test.source.SilentCalls())
	})
}

func TestService_Dashboard(t *testing.T) {
	t.Run("serves the cached view", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.AddCalendar(family)

		_, err := test.service.Dashboard(context.Background())
		require.NoError(t, err)
		_, err = test.service.Dashboard(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, test.provider.ListCalls())
	})

	t.Run("invalidation forces a rebuild", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.AddCalendar(family)

		_, err := test.service.Dashboard(context.Background())
		require.NoError(t, err)
		test.cache.Invalidate()
		_, err = test.service.Dashboard(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, test.provider.ListCalls())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.SetListError(errors.New("connection refused"))

		_, err := test.service.Dashboard(context.Background())
		require.Error(t, err)
		test.provider.SetListError(nil)
		_, err = test.service.Dashboard(context.Background())

		require.NoError(t, err)
	})
}

func TestService_Events(t *testing.T) {
	test := setupDashboardTest(t, "")
	test.provider.AddCalendar(family,
		allDay("before", "Before", "2026-03-01", "2026-03-02"),
		allDay("inside", "Inside", "2026-03-05", "2026-03-06"))
	from := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)

	events, err := test.service.Events(context.Background(), from, to)

	require.NoError(t, err)
	assert.Equal(t, []string{"inside"}, ids(events))
}
