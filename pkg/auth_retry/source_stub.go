package auth_retry

import (
	"context"
	"sync"

	"github.com/klokku/ecosystem/pkg/credential"
)

type SourceStub struct {
	mu          sync.Mutex
	current     *credential.Credential
	renewals    []credential.Credential
	silentCalls int
}

func NewSourceStub(current *credential.Credential, renewals ...credential.Credential) *SourceStub {
	return &SourceStub{current: current, renewals: renewals}
}

func (s *SourceStub) Current() (credential.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return credential.Credential{}, credential.ErrNoCredential
	}
	return *s.current, nil
}

func (s *SourceStub) AcquireSilent(ctx context.Context) (credential.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silentCalls++
	if len(s.renewals) == 0 {
		return credential.Credential{}, false
	}
	renewed := s.renewals[0]
	s.renewals = s.renewals[1:]
	s.current = &renewed
	return renewed, true
}

func (s *SourceStub) SilentCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.silentCalls
}
