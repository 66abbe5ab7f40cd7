package credential

import (
	"context"
	"sync"
)

// AuthorizerStub hands out queued grants from Silent, then ErrNotRenewable.
type AuthorizerStub struct {
	mu          sync.Mutex
	grants      []Grant
	silentErr   error
	silentCalls int
	forgets     int
	gate        chan struct{}
	entered     chan struct{}
}

func NewAuthorizerStub(grants ...Grant) *AuthorizerStub {
	return &AuthorizerStub{grants: grants}
}

func (a *AuthorizerStub) Silent(ctx context.Context) (Grant, error) {
	a.mu.Lock()
	a.silentCalls++
	if a.silentErr != nil {
		defer a.mu.Unlock()
		return Grant{}, a.silentErr
	}
	if len(a.grants) == 0 {
		defer a.mu.Unlock()
		return Grant{}, ErrNotRenewable
	}
	grant := a.grants[0]
	a.grants = a.grants[1:]
	gate, entered := a.gate, a.entered
	a.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	return grant, nil
}

func (a *AuthorizerStub) Forget(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.forgets++
	a.grants = nil
	return nil
}

// Helper methods for tests

func (a *AuthorizerStub) AddGrant(grant Grant) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.grants = append(a.grants, grant)
}

func (a *AuthorizerStub) SetSilentError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.silentErr = err
}

// BlockSilent holds every following Silent call after it has taken its grant.
// entered receives once per held call; release lets them all return.
func (a *AuthorizerStub) BlockSilent() (entered <-chan struct{}, release func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gate = make(chan struct{})
	a.entered = make(chan struct{}, 1)
	gate := a.gate
	return a.entered, func() { close(gate) }
}

func (a *AuthorizerStub) SilentCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.silentCalls
}

func (a *AuthorizerStub) Forgotten() bool {
	return a.ForgetCalls() > 0
}

func (a *AuthorizerStub) ForgetCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.forgets
}
