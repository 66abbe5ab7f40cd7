package credential

import (
	"context"
	"sync"
)

type RepositoryStub struct {
	mu         sync.RWMutex
	credential *Credential
	saves      int
	loadErr    error
	saveErr    error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

func (r *RepositoryStub) Load(ctx context.Context) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.credential == nil {
		return nil, nil
	}
	c := *r.credential
	return &c, nil
}

func (r *RepositoryStub) Save(ctx context.Context, credential Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.credential = &credential
	r.saves++
	return nil
}

func (r *RepositoryStub) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credential = nil
	return nil
}

// Helper methods for tests

func (r *RepositoryStub) SetCredential(credential *Credential) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credential = credential
}

func (r *RepositoryStub) SetLoadError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadErr = err
}

func (r *RepositoryStub) SetSaveError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

func (r *RepositoryStub) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
