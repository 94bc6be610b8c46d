// Package auth implements profile PIN entry with lockouts, security-word PIN
// recovery, and the global access lock that gates profile creation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"simplstream/models"
)

const (
	// MaxPINAttempts wrong PINs in a row lock the gate.
	MaxPINAttempts = 3
	// MaxSecurityAttempts wrong security words in a row lock recovery.
	MaxSecurityAttempts = 3

	FirstLockout    = 60 * time.Second
	RepeatLockout   = 30 * time.Second
	SecurityLockout = 60 * time.Second
)

var (
	ErrNoSelection           = errors.New("no profile selected")
	ErrIncorrectPIN          = errors.New("incorrect pin")
	ErrIncorrectSecurityWord = errors.New("incorrect security word")
)

// State is the position of a Gate in the PIN entry flow.
type State int

const (
	Idle State = iota
	Entering
	Success
	Locked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Entering:
		return "entering"
	case Success:
		return "success"
	case Locked:
		return "locked"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Action is what the PIN is being asked for.
type Action string

const (
	ActionSelect Action = "select"
	ActionExport Action = "export"
	ActionDelete Action = "delete"
)

// ProfileLister gives the gate read access to the profile store.
type ProfileLister interface {
	List() ([]models.Profile, error)
}

// RecoveryScope controls which profiles a security word is matched against.
type RecoveryScope int

const (
	// RecoveryAnyProfile matches the word against every local profile and
	// reveals the PIN of whichever profile matched.
	RecoveryAnyProfile RecoveryScope = iota
	// RecoverySelectedProfile only accepts the selected profile's word.
	RecoverySelectedProfile
)

// Attempt describes the outcome of one PIN submission.
type Attempt struct {
	State           State
	Remaining       int
	LockedFor       time.Duration
	RecoveryOffered bool
}

// Gate holds the PIN entry state for one profile selection. It is memory only.
type Gate struct {
	mu       sync.Mutex
	profiles ProfileLister
	scope    RecoveryScope
	now      func() time.Time

	profile  models.Profile
	selected bool
	action   Action
	state    State

	pin      models.AttemptLock
	security models.AttemptLock
	lockouts int
}

// GateOption customises a Gate.
type GateOption func(*Gate)

// WithRecoveryScope selects how security words are matched.
func WithRecoveryScope(scope RecoveryScope) GateOption {
	return func(g *Gate) { g.scope = scope }
}

// WithGateClock replaces time.Now.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate returns an idle gate that reads profiles from profiles.
func NewGate(profiles ProfileLister, opts ...GateOption) *Gate {
	g := &Gate{
		profiles: profiles,
		now:      time.Now,
		pin:      models.AttemptLock{Kind: models.LockPIN},
		security: models.AttemptLock{Kind: models.LockSecurity},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Select starts a new entry flow for p. Unprotected profiles succeed at once.
// Counters and lockouts from an earlier selection are discarded.
func (g *Gate) Select(p models.Profile, action Action) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.profile = p
	g.selected = true
	g.action = action
	g.pin = models.AttemptLock{Kind: models.LockPIN}
	g.security = models.AttemptLock{Kind: models.LockSecurity}
	g.lockouts = 0

	if p.HasPIN() {
		g.state = Entering
	} else {
		g.state = Success
	}
	return g.state
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Profile returns the selected profile.
func (g *Gate) Profile() (models.Profile, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.profile, g.selected
}

// PINLock returns a copy of the PIN attempt counter.
func (g *Gate) PINLock() models.AttemptLock {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pin
}

// SecurityLock returns a copy of the security-word attempt counter.
func (g *Gate) SecurityLock() models.AttemptLock {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.security
}

// SubmitPIN checks pin against the selected profile. While locked it returns a
// *models.LockedOutError without consuming an attempt. A mismatch returns
// ErrIncorrectPIN, or a LockedOutError once the attempt budget is spent.
func (g *Gate) SubmitPIN(pin string) (Attempt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.selected {
		return Attempt{State: g.state}, ErrNoSelection
	}
	now := g.now()
	if g.pin.LockedAt(now) {
		return g.lockedAttempt(now), g.lockedErr(g.pin, now)
	}
	g.expireLocks(now)
	if !g.profile.HasPIN() {
		g.state = Success
		return Attempt{State: g.state}, nil
	}

	if pin == *g.profile.PIN {
		g.pin = models.AttemptLock{Kind: models.LockPIN}
		g.state = Success
		log.Printf("[auth] pin accepted profile=%s action=%s", g.profile.ID, g.action)
		return Attempt{State: g.state}, nil
	}

	g.pin.Count++
	if g.pin.Count < MaxPINAttempts {
		g.state = Entering
		return Attempt{State: g.state, Remaining: MaxPINAttempts - g.pin.Count}, ErrIncorrectPIN
	}

	duration := FirstLockout
	if g.lockouts > 0 {
		duration = RepeatLockout
	}
	g.lockouts++
	g.pin.LockedUntil = now.Add(duration)
	g.state = Locked
	log.Printf("[auth] pin locked profile=%s for=%s", g.profile.ID, duration)
	return g.lockedAttempt(now), g.lockedErr(g.pin, now)
}

func (g *Gate) lockedAttempt(now time.Time) Attempt {
	return Attempt{
		State:           Locked,
		LockedFor:       g.pin.LockedUntil.Sub(now),
		RecoveryOffered: g.recoveryAvailable(),
	}
}

func (g *Gate) lockedErr(lock models.AttemptLock, now time.Time) error {
	return &models.LockedOutError{Kind: lock.Kind, Until: lock.LockedUntil, Remaining: lock.LockedUntil.Sub(now)}
}

func (g *Gate) recoveryAvailable() bool {
	return g.selected && g.action == ActionSelect && g.profile.CanRecoverPIN()
}

// Tick expires elapsed lockouts. An expired PIN lock returns the gate to Idle
// with a cleared counter; the profile stays selected. It reports whether any
// lock was released.
func (g *Gate) Tick() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.expireLocks(g.now())
}

// expireLocks clears locks whose deadline has passed at now. Callers hold g.mu.
func (g *Gate) expireLocks(now time.Time) bool {
	released := false
	if g.pin.Expired(now) {
		g.pin = models.AttemptLock{Kind: models.LockPIN}
		if g.state == Locked {
			g.state = Idle
		}
		released = true
	}
	if g.security.Expired(now) {
		g.security = models.AttemptLock{Kind: models.LockSecurity}
		released = true
	}
	if released {
		log.Printf("[auth] lock expired profile=%s", g.profile.ID)
	}
	return released
}

// Watch polls Tick every interval until ctx is cancelled or the returned stop
// function is called. onUnlock runs on the polling goroutine after each
// release. stop waits for the goroutine to exit.
func (g *Gate) Watch(ctx context.Context, interval time.Duration, onUnlock func()) (stop func()) {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)

	var wg conc.WaitGroup
	wg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if g.Tick() && onUnlock != nil {
					onUnlock()
				}
			}
		}
	})

	return func() {
		cancel()
		wg.Wait()
	}
}
