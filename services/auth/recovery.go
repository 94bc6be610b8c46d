package auth

import (
	"log"
	"strings"

	"simplstream/models"
)

// Recovery is a revealed PIN. ProfileID names the profile whose word matched,
// which under RecoveryAnyProfile need not be the selected one.
type Recovery struct {
	ProfileID string
	PIN       string
}

// RecoveryAvailable reports whether the selected profile can use the
// security-word path.
func (g *Gate) RecoveryAvailable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recoveryAvailable()
}

// BeginRecovery switches to security-word entry. It fails with
// models.ErrRecoveryUnavailable when the profile has no security word.
func (g *Gate) BeginRecovery() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.selected {
		return ErrNoSelection
	}
	if !g.recoveryAvailable() {
		return models.ErrRecoveryUnavailable
	}
	return nil
}

// SubmitSecurityWord matches word against stored security words and reveals
// the matched profile's PIN in plaintext. Failures count against a separate
// security counter; three of them lock recovery for SecurityLockout.
func (g *Gate) SubmitSecurityWord(word string) (Recovery, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.selected {
		return Recovery{}, ErrNoSelection
	}
	if !g.recoveryAvailable() {
		return Recovery{}, models.ErrRecoveryUnavailable
	}
	now := g.now()
	if g.security.LockedAt(now) {
		return Recovery{}, g.lockedErr(g.security, now)
	}
	g.expireLocks(now)

	match, err := g.matchWord(strings.TrimSpace(word))
	if err != nil {
		return Recovery{}, err
	}
	if match != nil {
		g.security = models.AttemptLock{Kind: models.LockSecurity}
		log.Printf("[auth] pin revealed selected=%s matched=%s", g.profile.ID, match.ID)
		return Recovery{ProfileID: match.ID, PIN: *match.PIN}, nil
	}

	g.security.Count++
	if g.security.Count < MaxSecurityAttempts {
		return Recovery{}, ErrIncorrectSecurityWord
	}
	g.security.LockedUntil = now.Add(SecurityLockout)
	log.Printf("[auth] recovery locked profile=%s for=%s", g.profile.ID, SecurityLockout)
	return Recovery{}, g.lockedErr(g.security, now)
}

// SecurityAttemptsRemaining returns how many security words may still be tried.
func (g *Gate) SecurityAttemptsRemaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return MaxSecurityAttempts - g.security.Count
}

func (g *Gate) matchWord(word string) (*models.Profile, error) {
	if word == "" {
		return nil, nil
	}
	candidates := []models.Profile{g.profile}
	if g.profiles != nil {
		all, err := g.profiles.List()
		if err != nil {
			return nil, err
		}
		if g.scope == RecoveryAnyProfile {
			candidates = all
		} else {
			for _, p := range all {
				if p.ID == g.profile.ID {
					candidates = []models.Profile{p}
					break
				}
			}
		}
	}

	for i := range candidates {
		p := candidates[i]
		if p.SecurityWord != nil && *p.SecurityWord == word && p.HasPIN() {
			return &p, nil
		}
	}
	return nil, nil
}
