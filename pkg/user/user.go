package user

import (
	"context"
	"errors"

	"github.com/klokku/ecosystem/pkg/credential"
)

var ErrNoProfile = errors.New("profile not found")

// Profile of the signed-in identity.
type Profile struct {
	Name    string
	Email   string
	Picture string
}

// DisplayName falls back to the email and then to "Unknown".
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Email != "" {
		return p.Email
	}
	return "Unknown"
}

// Fetcher looks up the profile behind a credential at the identity provider.
type Fetcher interface {
	FetchProfile(ctx context.Context, cred credential.Credential) (Profile, error)
}
