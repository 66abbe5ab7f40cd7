package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klokku/ecosystem/internal/test_utils"
	"github.com/klokku/ecosystem/pkg/auth_retry"
	"github.com/klokku/ecosystem/pkg/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jane = Profile{Name: "Jane Doe", Email: "jane@example.com", Picture: "https://example.com/jane.png"}

func TestProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "Jane Doe", jane.DisplayName())
	assert.Equal(t, "jane@example.com", Profile{Email: "jane@example.com"}.DisplayName())
	assert.Equal(t, "Unknown", Profile{}.DisplayName())
}

func TestRepoImpl(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(test_utils.SetupTestDB(t))

	_, err := repo.GetProfile(ctx)
	assert.ErrorIs(t, err, ErrNoProfile)

	require.NoError(t, repo.StoreProfile(ctx, Profile{Name: "Old"}))
	require.NoError(t, repo.StoreProfile(ctx, jane))
	profile, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, jane, profile)

	require.NoError(t, repo.DeleteProfile(ctx))
	_, err = repo.GetProfile(ctx)
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestServiceImpl_RefreshProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("profile is fetched and stored", func(t *testing.T) {
		repo := NewStubUserRepository()
		service := NewUserService(repo, NewFetcherStub(jane), auth_retry.NewSourceStub(&credential.Credential{AccessToken: "valid"}))

		profile, err := service.RefreshProfile(ctx)

		require.NoError(t, err)
		assert.Equal(t, jane, profile)
		stored, err := service.GetCurrentProfile(ctx)
		require.NoError(t, err)
		assert.Equal(t, jane, stored)
	})

	t.Run("rejected lookup is retried once", func(t *testing.T) {
		fetcher := NewFetcherStub(jane)
		fetcher.Reject("expired")
		src := auth_retry.NewSourceStub(&credential.Credential{AccessToken: "expired"}, credential.Credential{AccessToken: "renewed"})
		service := NewUserService(NewStubUserRepository(), fetcher, src)

		_, err := service.RefreshProfile(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, fetcher.Calls())
	})

	t.Run("failed lookup keeps the stored profile", func(t *testing.T) {
		repo := NewStubUserRepository()
		require.NoError(t, repo.StoreProfile(ctx, jane))
		fetcher := NewFetcherStub(Profile{})
		fetcher.SetError(errors.New("userinfo down"))
		service := NewUserService(repo, fetcher, auth_retry.NewSourceStub(&credential.Credential{AccessToken: "valid"}))

		_, err := service.RefreshProfile(ctx)

		assert.Error(t, err)
		stored, _ := repo.GetProfile(ctx)
		assert.Equal(t, jane, stored)
	})

	t.Run("clear drops the profile", func(t *testing.T) {
		repo := NewStubUserRepository()
		require.NoError(t, repo.StoreProfile(ctx, jane))
		service := NewUserService(repo, NewFetcherStub(jane), auth_retry.NewSourceStub(nil))

		require.NoError(t, service.ClearProfile(ctx))

		_, err := service.GetCurrentProfile(ctx)
		assert.ErrorIs(t, err, ErrNoProfile)
	})
}

func TestHandler_CurrentUser(t *testing.T) {
	t.Run("returns the stored profile", func(t *testing.T) {
		repo := NewStubUserRepository()
		require.NoError(t, repo.StoreProfile(context.Background(), Profile{Email: "jane@example.com"}))
		handler := NewHandler(NewUserService(repo, NewFetcherStub(jane), auth_retry.NewSourceStub(nil)))

		req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
		w := httptest.NewRecorder()
		handler.CurrentUser(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var dto ProfileDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, "jane@example.com", dto.Email)
		assert.Equal(t, "jane@example.com", dto.DisplayName)
	})

	t.Run("prefers the profile in the request context", func(t *testing.T) {
		handler := NewHandler(NewUserService(NewStubUserRepository(), NewFetcherStub(jane), auth_retry.NewSourceStub(nil)))

		req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
		req = req.WithContext(WithProfile(req.Context(), jane))
		w := httptest.NewRecorder()
		handler.CurrentUser(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var dto ProfileDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, "Jane Doe", dto.DisplayName)
	})

	t.Run("forbidden without profile", func(t *testing.T) {
		handler := NewHandler(NewUserService(NewStubUserRepository(), NewFetcherStub(jane), auth_retry.NewSourceStub(nil)))

		req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
		w := httptest.NewRecorder()
		handler.CurrentUser(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
