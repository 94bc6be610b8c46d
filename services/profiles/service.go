package profiles

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"simplstream/internal/storage"
	"simplstream/models"
	"simplstream/utils"
)

var (
	ErrProfileLimit = fmt.Errorf("%w: profile limit reached", models.ErrCapacityExceeded)
	ErrAccessLocked = fmt.Errorf("%w: profile creation is locked", models.ErrCapacityExceeded)
)

// Purger removes everything a component keeps for one profile. Delete calls
// every registered purger after the profile record is gone.
type Purger interface {
	PurgeProfile(profileID string) error
}

// AccessGate reports whether the global anti-abuse lock is engaged.
type AccessGate interface {
	Locked() (bool, error)
}

// Service persists the profile collection.
type Service struct {
	store       storage.Store
	maxProfiles int
	gate        AccessGate
	purgers     []Purger
	now         func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithMaxProfiles overrides the profile cap.
func WithMaxProfiles(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxProfiles = n
		}
	}
}

// WithAccessGate blocks creation while the gate reports locked.
func WithAccessGate(g AccessGate) Option {
	return func(s *Service) { s.gate = g }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a profile service over store.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		maxProfiles: models.MaxProfiles,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterPurger adds a component to the delete cascade.
func (s *Service) RegisterPurger(p Purger) {
	s.purgers = append(s.purgers, p)
}

func newDoc() []models.Profile { return []models.Profile{} }

// List returns all profiles in insertion order.
func (s *Service) List() ([]models.Profile, error) {
	profiles := newDoc()
	if err := storage.ReadJSON(s.store, storage.KeyProfiles, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Get returns the profile with id.
func (s *Service) Get(id string) (models.Profile, error) {
	profiles, err := s.List()
	if err != nil {
		return models.Profile{}, err
	}
	for _, p := range profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Profile{}, fmt.Errorf("profile %q: %w", id, models.ErrNotFound)
}

// Exists reports whether a profile with id is stored.
func (s *Service) Exists(id string) bool {
	_, err := s.Get(id)
	return err == nil
}

// Save upserts p by id: an existing record is replaced as a whole, a new one is
// appended. Callers read-modify-write at the call site.
func (s *Service) Save(p models.Profile) error {
	if strings.TrimSpace(p.ID) == "" {
		return models.NewValidationError("id", "is required")
	}
	if err := utils.ValidateStruct(p); err != nil {
		return err
	}
	if p.PIN != nil && *p.PIN != "" && !utils.ValidatePIN(*p.PIN) {
		return models.NewValidationError("pin", fmt.Sprintf("must be %d digits", utils.PINLength))
	}

	return storage.MutateJSON(s.store, storage.KeyProfiles, newDoc, func(profiles []models.Profile) ([]models.Profile, error) {
		for i := range profiles {
			if profiles[i].ID == p.ID {
				profiles[i] = p
				return profiles, nil
			}
		}
		return append(profiles, p), nil
	})
}

// LimitReached reports whether the profile cap has been hit.
func (s *Service) LimitReached() (bool, error) {
	profiles, err := s.List()
	if err != nil {
		return false, err
	}
	return len(profiles) >= s.maxProfiles, nil
}

// CheckCapacity returns nil when a new profile may be created, or an error
// wrapping models.ErrCapacityExceeded naming the reason.
func (s *Service) CheckCapacity() error {
	if s.gate != nil {
		locked, err := s.gate.Locked()
		if err != nil {
			return err
		}
		if locked {
			return ErrAccessLocked
		}
	}
	reached, err := s.LimitReached()
	if err != nil {
		return err
	}
	if reached {
		return ErrProfileLimit
	}
	return nil
}

// CanCreate reports whether another profile may be created and, when not, a
// short reason suitable for display.
func (s *Service) CanCreate() (bool, string) {
	switch err := s.CheckCapacity(); {
	case err == nil:
		return true, ""
	case errors.Is(err, ErrAccessLocked):
		return false, "profile creation is locked"
	case errors.Is(err, ErrProfileLimit):
		return false, fmt.Sprintf("maximum of %d profiles reached", s.maxProfiles)
	default:
		return false, err.Error()
	}
}

// Create validates input and appends a new profile with a fresh id.
func (s *Service) Create(input models.ProfileInput) (models.Profile, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Profile{}, models.NewValidationError("name", "is required")
	}

	var pin, word *string
	if input.PIN != "" || input.ConfirmPIN != "" {
		if err := validatePasscode(input.PIN, input.ConfirmPIN); err != nil {
			return models.Profile{}, err
		}
		w := strings.TrimSpace(input.SecurityWord)
		if w == "" {
			return models.Profile{}, models.NewValidationError("security_word", "is required when a PIN is set")
		}
		pin, word = models.StringPtr(input.PIN), models.StringPtr(w)
	}

	if s.gate != nil {
		locked, err := s.gate.Locked()
		if err != nil {
			return models.Profile{}, err
		}
		if locked {
			return models.Profile{}, ErrAccessLocked
		}
	}

	color := strings.TrimSpace(input.AvatarColor)
	if color == "" {
		color = models.DefaultAvatarColor
	}

	profile := models.Profile{
		ID:           uuid.NewString(),
		Name:         name,
		AvatarColor:  color,
		PIN:          pin,
		SecurityWord: word,
		CreatedAt:    s.now().UTC(),
		FirstLogin:   models.BoolPtr(true),
	}

	err := storage.MutateJSON(s.store, storage.KeyProfiles, newDoc, func(profiles []models.Profile) ([]models.Profile, error) {
		if len(profiles) >= s.maxProfiles {
			return nil, ErrProfileLimit
		}
		return append(profiles, profile), nil
	})
	if err != nil {
		return models.Profile{}, err
	}

	log.Printf("[profiles] created id=%s protected=%t", profile.ID, profile.HasPIN())
	return profile, nil
}

// Delete removes the profile and every per-profile record registered purgers
// hold. Unknown ids are a no-op.
func (s *Service) Delete(id string) error {
	removed := false
	err := storage.MutateJSON(s.store, storage.KeyProfiles, newDoc, func(profiles []models.Profile) ([]models.Profile, error) {
		removed = false
		kept := profiles[:0]
		for _, p := range profiles {
			if p.ID == id {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		if !removed {
			return nil, storage.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return fmt.Errorf("delete profile %q: %w", id, err)
	}

	var purgeErrs []error
	for _, p := range s.purgers {
		if err := p.PurgeProfile(id); err != nil {
			purgeErrs = append(purgeErrs, err)
		}
	}
	if len(purgeErrs) > 0 {
		log.Printf("[profiles] cascade for id=%s incomplete: %v", id, errors.Join(purgeErrs...))
		return fmt.Errorf("purge profile %q: %w", id, errors.Join(purgeErrs...))
	}

	if removed {
		log.Printf("[profiles] deleted id=%s", id)
	}
	return nil
}

// DeleteAllData removes every namespaced key: a factory reset.
func (s *Service) DeleteAllData() error {
	var errs []error
	for _, key := range storage.AllKeys() {
		if err := s.store.Remove(key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Printf("[profiles] all local data deleted")
	return nil
}

func validatePasscode(pin, confirm string) error {
	if err := utils.ValidateVar("pin", pin, "pin"); err != nil {
		return err
	}
	if pin != confirm {
		return models.NewValidationError("confirm_pin", "passcodes do not match")
	}
	return nil
}
