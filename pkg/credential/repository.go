package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Repository interface {
	// Load returns the persisted credential, or nil when there is none.
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, credential Credential) error
	Clear(ctx context.Context) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Load(ctx context.Context) (*Credential, error) {
	var credential Credential
	var expiryTimestamp int64
	err := r.db.QueryRowContext(ctx, "SELECT access_token, expiry FROM session_credential WHERE id = 1").
		Scan(&credential.AccessToken, &expiryTimestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load credential: %w", err)
	}
	credential.Expiry = time.Unix(expiryTimestamp, 0)
	return &credential, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, credential Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_credential (id, access_token, expiry)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			access_token = excluded.access_token,
			expiry = excluded.expiry`,
		credential.AccessToken, credential.Expiry.Unix())
	if err != nil {
		return fmt.Errorf("unable to store credential: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_credential"); err != nil {
		return fmt.Errorf("unable to clear credential: %w", err)
	}
	return nil
}
