package user

import (
	"context"
	"fmt"

	"github.com/klokku/ecosystem/pkg/auth_retry"
	"github.com/klokku/ecosystem/pkg/credential"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetCurrentProfile(ctx context.Context) (Profile, error)
	// RefreshProfile fetches the profile of the signed-in identity and stores it.
	RefreshProfile(ctx context.Context) (Profile, error)
	ClearProfile(ctx context.Context) error
}

type ServiceImpl struct {
	repo    Repo
	fetcher Fetcher
	source  auth_retry.Source
}

func NewUserService(repo Repo, fetcher Fetcher, source auth_retry.Source) *ServiceImpl {
	return &ServiceImpl{repo: repo, fetcher: fetcher, source: source}
}

func (s *ServiceImpl) GetCurrentProfile(ctx context.Context) (Profile, error) {
	return s.repo.GetProfile(ctx)
}

func (s *ServiceImpl) RefreshProfile(ctx context.Context) (Profile, error) {
	profile, err := auth_retry.Call(ctx, s.source, func(ctx context.Context, cred credential.Credential) (Profile, error) {
		return s.fetcher.FetchProfile(ctx, cred)
	})
	if err != nil {
		return Profile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if err := s.repo.StoreProfile(ctx, profile); err != nil {
		return Profile{}, err
	}
	log.Debugf("Profile of %s stored", profile.DisplayName())
	return profile, nil
}

func (s *ServiceImpl) ClearProfile(ctx context.Context) error {
	return s.repo.DeleteProfile(ctx)
}
