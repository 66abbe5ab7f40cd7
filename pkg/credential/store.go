package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klokku/ecosystem/internal/event_bus"
	"github.com/klokku/ecosystem/internal/utils"
	log "github.com/sirupsen/logrus"
)

// Authorizer is the identity provider side of the credential lifecycle.
type Authorizer interface {
	// Silent obtains a new grant without user interaction. It returns
	// ErrNotRenewable when no authorization session exists.
	Silent(ctx context.Context) (Grant, error)
	// Forget drops the authorization session.
	Forget(ctx context.Context) error
}

// errSessionEnded marks a grant that arrived after the session it was requested in was signed out.
var errSessionEnded = errors.New("session ended while acquiring")

// Store owns the session credential. Readers get value snapshots, so a rotation
// never changes the credential a request was issued with.
type Store struct {
	mu      sync.RWMutex
	current *Credential
	// session is bumped by SignOut; acquisitions started in an older session are dropped.
	session uint64

	repo       Repository
	authorizer Authorizer
	clock      utils.Clock
	bus        *event_bus.EventBus

	renewalMu sync.Mutex
	renewal   utils.Timer
	// silentMu serialises silent reacquisitions.
	silentMu sync.Mutex
}

func NewStore(repo Repository, authorizer Authorizer, clock utils.Clock, bus *event_bus.EventBus) *Store {
	if bus == nil {
		bus = event_bus.NewEventBus()
	}
	return &Store{
		repo:       repo,
		authorizer: authorizer,
		clock:      clock,
		bus:        bus,
	}
}

// Init recovers a persisted credential. An expired one is renewed immediately,
// a valid one gets a renewal scheduled.
func (s *Store) Init(ctx context.Context) error {
	persisted, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover credential: %w", err)
	}
	if persisted == nil {
		log.Info("No persisted credential, sign in is required")
		return nil
	}

	s.mu.Lock()
	s.current = persisted
	s.mu.Unlock()

	if persisted.State(s.clock.Now()) == StateExpired {
		log.Info("Persisted credential expired, renewing silently")
		if _, ok := s.AcquireSilent(ctx); !ok {
			log.Warn("Silent renewal failed on start, interactive sign in is required")
			return s.discard(ctx)
		}
		return nil
	}
	log.Debugf("Recovered credential valid until %s", persisted.Expiry.Format(time.RFC3339))
	s.ScheduleRenewal(persisted.Expiry)
	return nil
}

// Current returns a snapshot of the credential in use.
func (s *Store) Current() (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Credential{}, ErrNoCredential
	}
	return *s.current, nil
}

func (s *Store) SignedIn() bool {
	_, err := s.Current()
	return err == nil
}

// AcquireInteractive completes an interactive login with exchange. On failure the
// store is left untouched and "login failed" is logged; the error never leaves
// the store.
func (s *Store) AcquireInteractive(ctx context.Context, exchange func(ctx context.Context) (Grant, error)) (Credential, bool) {
	session := s.currentSession()
	grant, err := exchange(ctx)
	if err != nil {
		log.Errorf("Login failed: %v", err)
		return Credential{}, false
	}
	credential, err := s.accept(ctx, grant, true, session)
	if err != nil {
		log.Errorf("Login failed: %v", err)
		return Credential{}, false
	}
	return credential, true
}

// AcquireSilent asks the authorizer for a new credential without user interaction.
// ok is false when the session cannot be renewed; callers fall back to an
// interactive login.
func (s *Store) AcquireSilent(ctx context.Context) (credential Credential, ok bool) {
	s.silentMu.Lock()
	defer s.silentMu.Unlock()

	session := s.currentSession()
	grant, err := s.authorizer.Silent(ctx)
	if err != nil {
		log.Warnf("Silent credential reacquisition failed: %v", err)
		return Credential{}, false
	}
	credential, err = s.accept(ctx, grant, false, session)
	if errors.Is(err, errSessionEnded) {
		log.Info("Discarding credential reacquired after sign out")
		return Credential{}, false
	}
	if err != nil {
		log.Errorf("Unable to accept silently reacquired credential: %v", err)
		return Credential{}, false
	}
	log.Debug("Credential reacquired silently")
	return credential, true
}

// ScheduleRenewal arranges one background AcquireSilent RenewalLead before expiry,
// replacing any pending renewal.
func (s *Store) ScheduleRenewal(expiry time.Time) {
	delay := expiry.Add(-RenewalLead).Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	s.renewalMu.Lock()
	defer s.renewalMu.Unlock()
	if s.renewal != nil {
		s.renewal.Stop()
	}
	log.Debugf("Credential renewal scheduled in %s", delay)
	s.renewal = s.clock.AfterFunc(delay, func() {
		s.AcquireSilent(context.Background())
	})
}

// SignOut clears the session and cancels any pending renewal. Acquisitions still in
// flight are discarded when they complete.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.session++
	s.current = nil
	s.cancelRenewal()
	err := s.repo.Clear(ctx)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}

	if err := s.authorizer.Forget(ctx); err != nil {
		return fmt.Errorf("failed to clear authorization session: %w", err)
	}
	log.Info("Signed out")
	return s.publish(ctx, event_bus.CredentialSignedOut, event_bus.CredentialSignedOutData{At: s.clock.Now()})
}

// OnRenew registers h to run after every successful acquisition. h runs while the
// renewal is still in progress and must not trigger another acquisition.
func (s *Store) OnRenew(h func(ctx context.Context, credential Credential, interactive bool)) (unsubscribe func()) {
	return event_bus.SubscribeTyped(s.bus, event_bus.CredentialRenewed, func(e event_bus.EventT[event_bus.CredentialRenewedData]) error {
		credential, err := s.Current()
		if err != nil {
			return nil
		}
		h(e.Context(), credential, e.Data.Interactive)
		return nil
	})
}

// OnSignOut registers h to run after the session has been cleared.
func (s *Store) OnSignOut(h func(ctx context.Context) error) (unsubscribe func()) {
	return event_bus.SubscribeTyped(s.bus, event_bus.CredentialSignedOut, func(e event_bus.EventT[event_bus.CredentialSignedOutData]) error {
		return h(e.Context())
	})
}

func (s *Store) accept(ctx context.Context, grant Grant, interactive bool, session uint64) (Credential, error) {
	if grant.AccessToken == "" {
		return Credential{}, fmt.Errorf("provider granted an empty access token")
	}
	now := s.clock.Now()
	credential := grant.credential(now)

	s.mu.Lock()
	if s.session != session {
		signedOut := s.current == nil
		s.mu.Unlock()
		if signedOut {
			// the provider may have persisted a rotated authorization session meanwhile
			if err := s.authorizer.Forget(ctx); err != nil {
				log.Warnf("failed to clear authorization session: %v", err)
			}
		}
		return Credential{}, errSessionEnded
	}
	if err := s.repo.Save(ctx, credential); err != nil {
		s.mu.Unlock()
		return Credential{}, err
	}
	s.current = &credential
	if credential.State(now) == StateValid {
		s.ScheduleRenewal(credential.Expiry)
	} else {
		s.cancelRenewal()
		log.Warnf("Granted credential lives only %s, no background renewal scheduled", credential.Expiry.Sub(now))
	}
	s.mu.Unlock()

	_ = s.publish(ctx, event_bus.CredentialRenewed, event_bus.CredentialRenewedData{
		Expiry:      credential.Expiry,
		Interactive: interactive,
	})
	return credential, nil
}

// discard drops the in-memory and persisted credential but keeps the authorization session.
func (s *Store) discard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.cancelRenewal()
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear expired credential: %w", err)
	}
	return nil
}

func (s *Store) currentSession() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) cancelRenewal() {
	s.renewalMu.Lock()
	defer s.renewalMu.Unlock()
	if s.renewal != nil {
		s.renewal.Stop()
		s.renewal = nil
	}
}

func (s *Store) publish(ctx context.Context, eventType event_bus.EventType, data any) error {
	return s.bus.Publish(event_bus.NewEvent(ctx, eventType, data))
}
