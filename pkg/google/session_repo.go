package google

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// SessionRepository keeps the authorization session (the refresh token) that
// silent reacquisition renews from.
type SessionRepository interface {
	// GetRefreshToken returns "" when there is no authorization session.
	GetRefreshToken(ctx context.Context) (string, error)
	StoreRefreshToken(ctx context.Context, refreshToken string) error
	Clear(ctx context.Context) error
}

type SessionRepositoryImpl struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepositoryImpl {
	return &SessionRepositoryImpl{db: db}
}

func (r *SessionRepositoryImpl) GetRefreshToken(ctx context.Context) (string, error) {
	var refreshToken string
	err := r.db.QueryRowContext(ctx, "SELECT refresh_token FROM authorization_session WHERE id = 1").Scan(&refreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("unable to retrieve Google authorization session: %w", err)
	}
	return refreshToken, nil
}

func (r *SessionRepositoryImpl) StoreRefreshToken(ctx context.Context, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO authorization_session (id, refresh_token)
		VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET refresh_token = excluded.refresh_token`, refreshToken)
	if err != nil {
		return fmt.Errorf("unable to store Google authorization session: %w", err)
	}
	return nil
}

func (r *SessionRepositoryImpl) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM authorization_session"); err != nil {
		return fmt.Errorf("unable to clear Google authorization session: %w", err)
	}
	return nil
}

type SessionRepositoryStub struct {
	mu           sync.Mutex
	refreshToken string
}

func NewSessionRepositoryStub(refreshToken string) *SessionRepositoryStub {
	return &SessionRepositoryStub{refreshToken: refreshToken}
}

func (s *SessionRepositoryStub) GetRefreshToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken, nil
}

func (s *SessionRepositoryStub) StoreRefreshToken(ctx context.Context, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshToken = refreshToken
	return nil
}

func (s *SessionRepositoryStub) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshToken = ""
	return nil
}
