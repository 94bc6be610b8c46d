package models

import "time"

// AttemptLock is the in-memory throttle for one kind of secret entry. It is
// never persisted; a restart forgets it.
type AttemptLock struct {
	Count       int       `json:"count"`
	LockedUntil time.Time `json:"lockedUntil"`
	Kind        LockKind  `json:"type"`
}

// LockedAt reports whether the lock is still in force at now.
func (a AttemptLock) LockedAt(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// Expired reports whether a deadline was set and has passed at now.
func (a AttemptLock) Expired(now time.Time) bool {
	return !a.LockedUntil.IsZero() && !now.Before(a.LockedUntil)
}
