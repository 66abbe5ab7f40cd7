package auth_retry

import (
	"context"
	"errors"

	"github.com/klokku/ecosystem/pkg/credential"
	log "github.com/sirupsen/logrus"
)

// Source hands out credential snapshots and renews them without user interaction.
type Source interface {
	Current() (credential.Credential, error)
	AcquireSilent(ctx context.Context) (credential.Credential, bool)
}

// Call runs op with the current credential. When the provider rejects it, the
// credential is reacquired silently and op is retried once with the new one.
// The second outcome is final.
func Call[T any](ctx context.Context, src Source, op func(ctx context.Context, cred credential.Credential) (T, error)) (T, error) {
	var zero T
	cred, err := src.Current()
	if err != nil {
		return zero, err
	}

	result, err := op(ctx, cred)
	if err == nil || !errors.Is(err, credential.ErrCredentialRejected) {
		return result, err
	}

	log.Debug("Credential rejected, reacquiring silently")
	renewed, ok := src.AcquireSilent(ctx)
	if !ok {
		return zero, err
	}
	return op(ctx, renewed)
}
