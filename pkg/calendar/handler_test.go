package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klokku/ecosystem/internal/rest"
	"github.com/klokku/ecosystem/pkg/auth_retry"
	"github.com/klokku/ecosystem/pkg/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ListCalendars(t *testing.T) {
	t.Run("lists allowed calendars", func(t *testing.T) {
		directory, provider := setupDirectoryTest(t, auth_retry.NewSourceStub(&credential.Credential{AccessToken: "valid"}))
		provider.AddCalendar(Descriptor{ID: "family", Name: "Family", Color: "#fff"})
		provider.AddCalendar(Descriptor{ID: "tasks", Name: "Tasks"})
		handler := NewHandler(directory)

		req := httptest.NewRequest(http.MethodGet, "/api/calendars", nil)
		w := httptest.NewRecorder()
		handler.ListCalendars(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var calendars []CalendarDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&calendars))
		assert.Equal(t, []CalendarDTO{{Id: "family", Name: "Family", Color: "#fff"}}, calendars)
	})

	t.Run("forbidden when signed out", func(t *testing.T) {
		directory, _ := setupDirectoryTest(t, auth_retry.NewSourceStub(nil))
		handler := NewHandler(directory)

		req := httptest.NewRequest(http.MethodGet, "/api/calendars", nil)
		w := httptest.NewRecorder()
		handler.ListCalendars(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("provider failure is a bad gateway", func(t *testing.T) {
		directory, provider := setupDirectoryTest(t, auth_retry.NewSourceStub(&credential.Credential{AccessToken: "valid"}))
		provider.SetListError(errors.New("connection refused"))
		handler := NewHandler(directory)

		req := httptest.NewRequest(http.MethodGet, "/api/calendars", nil)
		w := httptest.NewRecorder()
		handler.ListCalendars(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		var body rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Unable to list calendars", body.Error)
	})
}
