package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/ecosystem/internal/rest"
	"github.com/klokku/ecosystem/internal/utils"
	"github.com/klokku/ecosystem/pkg/credential"
	"github.com/klokku/ecosystem/pkg/user"
	log "github.com/sirupsen/logrus"
)

const nonceLifetime = 10 * time.Minute

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

// AuthHandler drives the interactive login through the loopback callback.
type AuthHandler struct {
	auth        *GoogleAuth
	store       *credential.Store
	userService user.Service
	clock       utils.Clock
	defaultUrl  string

	mu     sync.Mutex
	nonces map[string]time.Time
}

func NewAuthHandler(auth *GoogleAuth, store *credential.Store, userService user.Service, clock utils.Clock, defaultUrl string) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		store:       store,
		userService: userService,
		clock:       clock,
		defaultUrl:  defaultUrl,
		nonces:      make(map[string]time.Time),
	}
}

func (h *AuthHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	finalUrl := h.redirectTarget(r.URL.Query().Get("finalUrl"))
	stateNonce := uuid.New().String()
	h.rememberNonce(stateNonce)

	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	u := h.auth.AuthCodeURL(finalUrl + "|" + stateNonce)

	w.WriteHeader(http.StatusOK)
	encodeErr := json.NewEncoder(w).Encode(googleAuthRedirect{
		RedirectUrl: u,
	})
	if encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}

func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	state := r.FormValue("state")
	parts := strings.SplitN(state, "|", 2)
	if len(parts) != 2 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid authentication state", "")
		return
	}
	finalUrl := h.redirectTarget(parts[0])
	nonce := parts[1]

	if !h.consumeNonce(nonce) {
		log.Errorf("Login failed: unknown or expired state nonce %s", nonce)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	if providerErr := r.FormValue("error"); providerErr != "" {
		log.Errorf("Login failed: %s", providerErr)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	code := r.FormValue("code")
	_, ok := h.store.AcquireInteractive(r.Context(), func(ctx context.Context) (credential.Grant, error) {
		return h.auth.Exchange(ctx, code)
	})
	if !ok {
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	if _, err := h.userService.RefreshProfile(r.Context()); err != nil {
		log.Warnf("Signed in, but the profile is unavailable: %v", err)
	}
	log.Debug("Successfully signed in with Google")
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

func (h *AuthHandler) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SignOut(r.Context()); err != nil {
		log.Errorf("failed to sign out: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to sign out", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// redirectTarget keeps finalUrl only when it resolves to the origin of defaultUrl.
func (h *AuthHandler) redirectTarget(finalUrl string) string {
	if finalUrl == "" {
		return h.defaultUrl
	}
	home, err := url.Parse(h.defaultUrl)
	if err != nil {
		return h.defaultUrl
	}
	target, err := url.Parse(finalUrl)
	if err != nil {
		log.Warnf("Ignoring malformed redirect %q", finalUrl)
		return h.defaultUrl
	}
	target = home.ResolveReference(target)
	if target.Scheme != home.Scheme || target.Host != home.Host {
		log.Warnf("Ignoring redirect to foreign origin %q", finalUrl)
		return h.defaultUrl
	}
	return target.String()
}

func (h *AuthHandler) rememberNonce(nonce string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clock.Now()
	for n, issued := range h.nonces {
		if now.Sub(issued) > nonceLifetime {
			delete(h.nonces, n)
		}
	}
	h.nonces[nonce] = now
}

func (h *AuthHandler) consumeNonce(nonce string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	issued, ok := h.nonces[nonce]
	if !ok {
		return false
	}
	delete(h.nonces, nonce)
	return h.clock.Now().Sub(issued) <= nonceLifetime
}
