package google

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/ecosystem/internal/config"
	"github.com/klokku/ecosystem/pkg/credential"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	oauth2v2 "google.golang.org/api/oauth2/v2"
)

// GoogleAuth runs the OAuth2 flows against Google. It implements credential.Authorizer.
type GoogleAuth struct {
	sessions    SessionRepository
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(cfg config.Application, sessions SessionRepository) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/auth/callback",
		Scopes: []string{
			oauth2v2.OpenIDScope,
			oauth2v2.UserinfoEmailScope,
			oauth2v2.UserinfoProfileScope,
			calendar.CalendarReadonlyScope,
		},
	}
	return &GoogleAuth{sessions: sessions, oauthConfig: oauthConfig}
}

// AuthCodeURL is where the user is sent to sign in. Offline access makes the
// grant renewable without another login.
func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a grant and keeps the
// authorization session for later silent renewals.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (credential.Grant, error) {
	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return credential.Grant{}, fmt.Errorf("unable to exchange code for token: %w", err)
	}
	if token.RefreshToken != "" {
		if err := g.sessions.StoreRefreshToken(ctx, token.RefreshToken); err != nil {
			return credential.Grant{}, err
		}
	} else {
		log.Warn("Google did not grant offline access, silent renewal will not be possible")
	}
	return g.grant(token), nil
}

func (g *GoogleAuth) Silent(ctx context.Context) (credential.Grant, error) {
	refreshToken, err := g.sessions.GetRefreshToken(ctx)
	if err != nil {
		return credential.Grant{}, err
	}
	if refreshToken == "" {
		return credential.Grant{}, credential.ErrNotRenewable
	}

	token, err := g.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return credential.Grant{}, fmt.Errorf("unable to refresh Google token: %w", err)
	}
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		log.Debug("Google rotated the refresh token")
		if err := g.sessions.StoreRefreshToken(ctx, token.RefreshToken); err != nil {
			return credential.Grant{}, err
		}
	}
	return g.grant(token), nil
}

func (g *GoogleAuth) Forget(ctx context.Context) error {
	return g.sessions.Clear(ctx)
}

// grant converts token back to a lifetime; oauth2 derives Expiry from the wall clock.
func (g *GoogleAuth) grant(token *oauth2.Token) credential.Grant {
	var expiresIn time.Duration
	if !token.Expiry.IsZero() {
		expiresIn = time.Until(token.Expiry)
	}
	return credential.Grant{AccessToken: token.AccessToken, ExpiresIn: expiresIn}
}
