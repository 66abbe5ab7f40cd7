package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klokku/ecosystem/internal/rest"
	"github.com/klokku/ecosystem/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var format = calendar.DisplayFormat{DateLayout: "2 January 2006", TimeLayout: "15:04", Location: time.UTC}

func TestHandler_GetDashboard(t *testing.T) {
	t.Run("renders the view", func(t *testing.T) {
		test := setupDashboardTest(t, "eco")
		test.provider.AddCalendar(family,
			allDay("party", "John's Birthday Party", "2026-03-10", "2026-03-11"),
			calendar.RawEvent{ID: "meeting", Summary: "Meeting",
				Start: &calendar.RawDate{DateTime: "2026-03-12T09:00:00Z"},
				End:   &calendar.RawDate{DateTime: "2026-03-12T10:00:00Z"}})
		handler := NewHandler(test.service, format)

		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		w := httptest.NewRecorder()
		handler.GetDashboard(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var dto DashboardDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.False(t, dto.HasAccess)
		assert.Equal(t, []NoticeDTO{
			{Severity: "warning", Message: "You do not have access to the EcoSystem calendar."},
			{Severity: "success", Message: "Someone is celebrating today!"},
		}, dto.Notices)
		require.Len(t, dto.Today, 1)
		assert.Equal(t, "10 March 2026", dto.Today[0].Period)
		assert.True(t, dto.Today[0].AllDay)
		require.Len(t, dto.Events, 2)
		assert.Equal(t, "09:00 – 10:00", dto.Events[1].Period)
		assert.Equal(t, "Family", dto.Events[1].CalendarName)
	})

	t.Run("signed out is forbidden", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.service.directory = calendar.NewDirectory(test.provider, noSession{}, calendar.DenyList{})
		handler := NewHandler(test.service, format)

		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		w := httptest.NewRecorder()
		handler.GetDashboard(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("credential rejected after retry asks to sign in again", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.Reject("valid")
		test.provider.Reject("renewed")
		handler := NewHandler(test.service, format)

		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		w := httptest.NewRecorder()
		handler.GetDashboard(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 2, test.provider.ListCalls())
	})

	t.Run("directory failure is an error state", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.SetListError(errors.New("connection refused"))
		handler := NewHandler(test.service, format)

		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		w := httptest.NewRecorder()
		handler.GetDashboard(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		var body rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Unable to load calendars", body.Error)
	})
}

func TestHandler_GetEvents(t *testing.T) {
	t.Run("invalid from is a bad request", func(t *testing.T) {
		handler := NewHandler(setupDashboardTest(t, "").service, format)

		req := httptest.NewRequest(http.MethodGet, "/api/events?from=invalid-date&to=2026-03-02T00:00:00Z", nil)
		w := httptest.NewRecorder()
		handler.GetEvents(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Invalid from (date) format", body.Error)
		assert.Equal(t, "'from' must be in RFC3339 format", body.Details)
	})

	t.Run("invalid to is a bad request", func(t *testing.T) {
		handler := NewHandler(setupDashboardTest(t, "").service, format)

		req := httptest.NewRequest(http.MethodGet, "/api/events?from=2026-03-01T00:00:00Z&to=tomorrow", nil)
		w := httptest.NewRecorder()
		handler.GetEvents(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty window is a bad request", func(t *testing.T) {
		handler := NewHandler(setupDashboardTest(t, "").service, format)

		req := httptest.NewRequest(http.MethodGet, "/api/events?from=2026-03-02T00:00:00Z&to=2026-03-01T00:00:00Z", nil)
		w := httptest.NewRecorder()
		handler.GetEvents(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns events active in the window", func(t *testing.T) {
		test := setupDashboardTest(t, "")
		test.provider.AddCalendar(family,
			allDay("long", "Holiday", "2026-02-27", "2026-03-03"),
			allDay("later", "Later", "2026-03-05", "2026-03-06"))
		handler := NewHandler(test.service, format)

		req := httptest.NewRequest(http.MethodGet, "/api/events?from=2026-03-01T00:00:00Z&to=2026-03-02T00:00:00Z", nil)
		w := httptest.NewRecorder()
		handler.GetEvents(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var events []EventDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&events))
		require.Len(t, events, 1)
		assert.Equal(t, "long", events[0].ID)
		assert.Equal(t, "27 February 2026 – 2 March 2026", events[0].Period)
	})
}
