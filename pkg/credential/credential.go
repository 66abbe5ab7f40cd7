package credential

import (
	"errors"
	"time"
)

// RenewalLead is how long before expiry a credential is renewed in the background.
const RenewalLead = 60 * time.Second

// defaultLifetime is assumed when the provider grants a token without a lifetime.
const defaultLifetime = time.Hour

var (
	// ErrNoCredential means nobody is signed in.
	ErrNoCredential = errors.New("no credential, sign in is required")
	// ErrCredentialRejected is returned by providers when the bearer token is expired or invalid.
	ErrCredentialRejected = errors.New("credential rejected by provider")
	// ErrNotRenewable means there is no authorization session to renew silently from.
	ErrNotRenewable = errors.New("authorization session is not renewable")
)

type State string

const (
	StateValid        State = "valid"
	StateExpiringSoon State = "expiring-soon"
	StateExpired      State = "expired"
)

// Credential is an opaque bearer token with its absolute expiry.
type Credential struct {
	AccessToken string
	Expiry      time.Time
}

func (c Credential) State(now time.Time) State {
	if !now.Before(c.Expiry) {
		return StateExpired
	}
	if c.Expiry.Sub(now) <= RenewalLead {
		return StateExpiringSoon
	}
	return StateValid
}

// Grant is what the identity provider hands out: a token and its lifetime.
type Grant struct {
	AccessToken string
	ExpiresIn   time.Duration
}

func (g Grant) credential(now time.Time) Credential {
	lifetime := g.ExpiresIn
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}
	return Credential{
		AccessToken: g.AccessToken,
		Expiry:      now.Add(lifetime),
	}
}
