package auth

import (
	"errors"
	"fmt"
	"log"

	"simplstream/internal/storage"
	"simplstream/models"
	"simplstream/utils"
)

// AccessLockThreshold failures for one subject engage the global lock.
const AccessLockThreshold = 5

const lockedFlag = "true"

// ErrInvalidToken is returned by Unlock for tokens outside the allow-list.
var ErrInvalidToken = fmt.Errorf("%w: invalid access token", models.ErrValidation)

var accessTokens = []string{"3F12B", "8H6R0", "DDLX7"}

// ValidAccessToken reports whether token is on the allow-list, ignoring case.
func ValidAccessToken(token string) bool {
	for _, t := range accessTokens {
		if utils.EqualFold(token, t) {
			return true
		}
	}
	return false
}

// AccessLock is the persisted, global anti-abuse gate. While engaged no new
// profile may be created; existing profiles are unaffected.
type AccessLock struct {
	store storage.Store
}

// NewAccessLock returns an AccessLock over store.
func NewAccessLock(store storage.Store) *AccessLock {
	return &AccessLock{store: store}
}

type failureDoc = map[string]int

// Locked reports whether the flag is set.
func (a *AccessLock) Locked() (bool, error) {
	v, ok, err := a.store.Get(storage.KeyAccessLocked)
	if err != nil {
		return false, fmt.Errorf("read access lock: %w", err)
	}
	return ok && v == lockedFlag, nil
}

// Failures returns the failure count recorded for subject.
func (a *AccessLock) Failures(subject string) (int, error) {
	doc := failureDoc{}
	if err := storage.ReadJSON(a.store, storage.KeyFailedAttempts, &doc); err != nil {
		return 0, err
	}
	return doc[subject], nil
}

// RecordFailure increments subject's counter and engages the lock once it
// reaches AccessLockThreshold. It returns the new count.
func (a *AccessLock) RecordFailure(subject string) (int, error) {
	if subject == "" {
		return 0, models.NewValidationError("subject", "is required")
	}

	var count int
	err := storage.MutateJSON(a.store, storage.KeyFailedAttempts, func() failureDoc { return failureDoc{} }, func(doc failureDoc) (failureDoc, error) {
		doc[subject]++
		count = doc[subject]
		return doc, nil
	})
	if err != nil {
		return 0, err
	}

	if count >= AccessLockThreshold {
		if err := a.store.Set(storage.KeyAccessLocked, lockedFlag); err != nil {
			return count, fmt.Errorf("engage access lock: %w", err)
		}
		log.Printf("[auth] access lock engaged subject=%s failures=%d", subject, count)
	}
	return count, nil
}

// ResetFailures forgets subject's counter.
func (a *AccessLock) ResetFailures(subject string) error {
	return storage.MutateJSON(a.store, storage.KeyFailedAttempts, func() failureDoc { return failureDoc{} }, func(doc failureDoc) (failureDoc, error) {
		if _, ok := doc[subject]; !ok {
			return nil, storage.ErrUnchanged
		}
		delete(doc, subject)
		return doc, nil
	})
}

// Unlock clears the flag and every failure counter when token is valid.
func (a *AccessLock) Unlock(token string) error {
	if !ValidAccessToken(token) {
		log.Printf("[auth] access unlock rejected")
		return ErrInvalidToken
	}
	err := errors.Join(
		a.store.Remove(storage.KeyAccessLocked),
		a.store.Remove(storage.KeyFailedAttempts),
	)
	if err != nil {
		return fmt.Errorf("clear access lock: %w", err)
	}
	log.Printf("[auth] access lock cleared")
	return nil
}

// PurgeProfile drops the failure counter kept for a deleted profile.
func (a *AccessLock) PurgeProfile(profileID string) error {
	return a.ResetFailures(profileID)
}
