package dashboard

import (
	"context"
	"sync"

	"github.com/klokku/ecosystem/pkg/credential"
)

// Lifecycle is the part of the credential store the cache follows.
type Lifecycle interface {
	OnRenew(h func(ctx context.Context, cred credential.Credential, interactive bool)) (unsubscribe func())
	OnSignOut(h func(ctx context.Context) error) (unsubscribe func())
}

// Cache holds the last dashboard view. Every invalidation starts a new
// generation; views built for an older generation are not stored.
type Cache struct {
	mu         sync.RWMutex
	view       *View
	generation uint64
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get() (View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.view == nil {
		return View{}, false
	}
	return *c.view, true
}

func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Store keeps view if no invalidation happened since generation was read.
func (c *Cache) Store(generation uint64, view View) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	c.view = &view
	return true
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.view = nil
}

// Watch invalidates the cache on sign in and sign out. Silent renewals keep
// the same identity and leave the cache alone.
func (c *Cache) Watch(lifecycle Lifecycle) {
	lifecycle.OnRenew(func(ctx context.Context, cred credential.Credential, interactive bool) {
		if interactive {
			c.Invalidate()
		}
	})
	lifecycle.OnSignOut(func(ctx context.Context) error {
		c.Invalidate()
		return nil
	})
}
