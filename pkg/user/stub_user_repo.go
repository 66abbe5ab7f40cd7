package user

import (
	"context"
	"sync"

	"github.com/klokku/ecosystem/pkg/credential"
)

type StubUserRepository struct {
	mu      sync.RWMutex
	profile *Profile
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{}
}

func (s *StubUserRepository) GetProfile(ctx context.Context) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return Profile{}, ErrNoProfile
	}
	return *s.profile, nil
}

func (s *StubUserRepository) StoreProfile(ctx context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &profile
	return nil
}

func (s *StubUserRepository) DeleteProfile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	return nil
}

// FetcherStub returns a fixed profile for every token not marked rejected.
type FetcherStub struct {
	mu       sync.Mutex
	profile  Profile
	err      error
	rejected map[string]bool
	calls    int
}

func NewFetcherStub(profile Profile) *FetcherStub {
	return &FetcherStub{profile: profile, rejected: make(map[string]bool)}
}

func (f *FetcherStub) FetchProfile(ctx context.Context, cred credential.Credential) (Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.rejected[cred.AccessToken] {
		return Profile{}, credential.ErrCredentialRejected
	}
	if f.err != nil {
		return Profile{}, f.err
	}
	return f.profile, nil
}

func (f *FetcherStub) Reject(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected[token] = true
}

func (f *FetcherStub) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *FetcherStub) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
