package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Repo interface {
	// GetProfile returns ErrNoProfile when nobody signed in yet.
	GetProfile(ctx context.Context) (Profile, error)
	StoreProfile(ctx context.Context, profile Profile) error
	DeleteProfile(ctx context.Context) error
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

func (r *RepoImpl) GetProfile(ctx context.Context) (Profile, error) {
	var profile Profile
	err := r.db.QueryRowContext(ctx, "SELECT name, email, picture FROM session_profile WHERE id = 1").
		Scan(&profile.Name, &profile.Email, &profile.Picture)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNoProfile
	}
	if err != nil {
		log.Errorf("failed to get profile: %v", err)
		return Profile{}, err
	}
	return profile, nil
}

func (r *RepoImpl) StoreProfile(ctx context.Context, profile Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_profile (id, name, email, picture)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			picture = excluded.picture`,
		profile.Name, profile.Email, profile.Picture)
	if err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

func (r *RepoImpl) DeleteProfile(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_profile"); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
