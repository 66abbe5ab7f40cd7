package user

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const ProfileKey contextKey = "profile"

// CurrentProfile retrieves the signed-in profile from the context. Returns ErrNoProfile if not present.
func CurrentProfile(ctx context.Context) (Profile, error) {
	profile, ok := ctx.Value(ProfileKey).(Profile)
	if !ok {
		log.Trace("profile not found in context")
		return Profile{}, ErrNoProfile
	}
	return profile, nil
}

func WithProfile(ctx context.Context, profile Profile) context.Context {
	return context.WithValue(ctx, ProfileKey, profile)
}
