package profiles

import (
	"fmt"
	"log"
	"strings"
	"time"

	"simplstream/internal/storage"
	"simplstream/models"
)

// Edit applies fn to the stored profile with id inside one read-modify-write
// cycle and returns the updated record.
func (s *Service) Edit(id string, fn func(p *models.Profile) error) (models.Profile, error) {
	var updated models.Profile
	err := storage.MutateJSON(s.store, storage.KeyProfiles, newDoc, func(profiles []models.Profile) ([]models.Profile, error) {
		for i := range profiles {
			if profiles[i].ID != id {
				continue
			}
			if err := fn(&profiles[i]); err != nil {
				return nil, err
			}
			updated = profiles[i]
			return profiles, nil
		}
		return nil, fmt.Errorf("profile %q: %w", id, models.ErrNotFound)
	})
	if err != nil {
		return models.Profile{}, err
	}
	return updated, nil
}

// Rename changes the display name.
func (s *Service) Rename(id, name string) (models.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Profile{}, models.NewValidationError("name", "is required")
	}
	return s.Edit(id, func(p *models.Profile) error {
		p.Name = name
		return nil
	})
}

// SetAvatarColor changes the fallback avatar colour token.
func (s *Service) SetAvatarColor(id, color string) (models.Profile, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		color = models.DefaultAvatarColor
	}
	return s.Edit(id, func(p *models.Profile) error {
		p.AvatarColor = color
		return nil
	})
}

// AddPasscode protects an unprotected profile. A security word is mandatory so
// the recovery path stays reachable.
func (s *Service) AddPasscode(id, pin, confirm, securityWord string) (models.Profile, error) {
	if err := validatePasscode(pin, confirm); err != nil {
		return models.Profile{}, err
	}
	word := strings.TrimSpace(securityWord)
	if word == "" {
		return models.Profile{}, models.NewValidationError("security_word", "is required when a PIN is set")
	}

	updated, err := s.Edit(id, func(p *models.Profile) error {
		p.PIN = models.StringPtr(pin)
		p.SecurityWord = models.StringPtr(word)
		return nil
	})
	if err == nil {
		log.Printf("[profiles] passcode added id=%s", id)
	}
	return updated, err
}

// ChangePasscode replaces the PIN and keeps the existing security word.
func (s *Service) ChangePasscode(id, pin, confirm string) (models.Profile, error) {
	if err := validatePasscode(pin, confirm); err != nil {
		return models.Profile{}, err
	}
	return s.Edit(id, func(p *models.Profile) error {
		if !p.HasPIN() {
			return models.NewValidationError("pin", "profile has no passcode to change")
		}
		p.PIN = models.StringPtr(pin)
		return nil
	})
}

// ClearSecurity removes both the PIN and the security word.
func (s *Service) ClearSecurity(id string) error {
	_, err := s.Edit(id, func(p *models.Profile) error {
		p.PIN = nil
		p.SecurityWord = nil
		return nil
	})
	if err == nil {
		log.Printf("[profiles] passcode removed id=%s", id)
	}
	return err
}

// SetAdsRemoved toggles the ads flag.
func (s *Service) SetAdsRemoved(id string, removed bool) (models.Profile, error) {
	return s.Edit(id, func(p *models.Profile) error {
		p.AdsRemoved = removed
		return nil
	})
}

// SearchHistoryEnabled reports the per-profile search-history toggle (default on).
func (s *Service) SearchHistoryEnabled(id string) (bool, error) {
	p, err := s.Get(id)
	if err != nil {
		return false, err
	}
	return p.SearchHistoryOn(), nil
}

// SetSearchHistoryEnabled stores the search-history toggle.
func (s *Service) SetSearchHistoryEnabled(id string, enabled bool) error {
	_, err := s.Edit(id, func(p *models.Profile) error {
		p.SearchHistoryEnabled = models.BoolPtr(enabled)
		return nil
	})
	return err
}

// WelcomePending reports whether the welcome flow should be shown. A profile
// stored without the flag is marked as a first login on first call.
func (s *Service) WelcomePending(id string) (bool, error) {
	p, err := s.Get(id)
	if err != nil {
		return false, err
	}
	if p.FirstLogin != nil {
		return *p.FirstLogin, nil
	}

	p, err = s.Edit(id, func(p *models.Profile) error {
		if p.FirstLogin == nil {
			p.FirstLogin = models.BoolPtr(true)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return p.IsFirstLogin(), nil
}

// DismissWelcome records that the welcome flow was closed.
func (s *Service) DismissWelcome(id string) error {
	_, err := s.Edit(id, func(p *models.Profile) error {
		p.FirstLogin = models.BoolPtr(false)
		return nil
	})
	return err
}

// SeasonalShownOn reports whether the seasonal promo for at's day was dismissed.
func (s *Service) SeasonalShownOn(id string, at time.Time) (bool, error) {
	p, err := s.Get(id)
	if err != nil {
		return false, err
	}
	return p.SeasonalShown == models.SeasonalKey(at), nil
}

// MarkSeasonalShown records that the seasonal promo for at's day was dismissed.
func (s *Service) MarkSeasonalShown(id string, at time.Time) error {
	_, err := s.Edit(id, func(p *models.Profile) error {
		p.SeasonalShown = models.SeasonalKey(at)
		return nil
	})
	return err
}
