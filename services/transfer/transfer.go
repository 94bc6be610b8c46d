// Package transfer moves a profile and its collections between installs as an
// obfuscated export blob (.ssp file).
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"simplstream/internal/codec"
	"simplstream/models"
	"simplstream/utils"
)

// Version is written into every export envelope.
const Version = "1.0"

// FileExtension is the conventional suffix of export files.
const FileExtension = ".ssp"

// Envelope is the decoded content of an export.
type Envelope struct {
	Profile      *models.Profile        `json:"profile"`
	WatchHistory []models.WatchHistory  `json:"watchHistory"`
	Watchlist    []models.WatchlistItem `json:"watchlist"`
	Ratings      []models.Rating        `json:"ratings"`
	ExportedAt   time.Time              `json:"exportedAt"`
	Version      string                 `json:"version"`
}

// ProfileStore is the subset of the profile service the serializer needs.
type ProfileStore interface {
	Get(id string) (models.Profile, error)
	Save(p models.Profile) error
	CheckCapacity() error
}

// Collections is the subset of the collections manager the serializer needs.
type Collections interface {
	HistoryFor(profileID string) ([]models.WatchHistory, error)
	WatchlistFor(profileID string) ([]models.WatchlistItem, error)
	RatingsFor(profileID string) ([]models.Rating, error)
	RecordWatch(h models.WatchHistory) (models.WatchHistory, error)
	AddToWatchlist(item models.WatchlistItem) (bool, error)
	Rate(r models.Rating) (models.Rating, error)
}

// Service exports and imports profiles.
type Service struct {
	profiles    ProfileStore
	collections Collections
	now         func() time.Time
}

// NewService wires the serializer to the profile and collection stores.
func NewService(profiles ProfileStore, collections Collections) *Service {
	return &Service{profiles: profiles, collections: collections, now: time.Now}
}

// SetClock replaces time.Now for exportedAt stamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Export serialises profileID with its history, watchlist and ratings.
func (s *Service) Export(profileID string) (string, error) {
	profile, err := s.profiles.Get(profileID)
	if err != nil {
		return "", err
	}

	env := Envelope{Profile: &profile, ExportedAt: s.now().UTC(), Version: Version}
	if env.WatchHistory, err = s.collections.HistoryFor(profileID); err != nil {
		return "", fmt.Errorf("export history: %w", err)
	}
	if env.Watchlist, err = s.collections.WatchlistFor(profileID); err != nil {
		return "", fmt.Errorf("export watchlist: %w", err)
	}
	if env.Ratings, err = s.collections.RatingsFor(profileID); err != nil {
		return "", fmt.Errorf("export ratings: %w", err)
	}

	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	log.Printf("[transfer] exported profile=%s history=%d watchlist=%d ratings=%d",
		profileID, len(env.WatchHistory), len(env.Watchlist), len(env.Ratings))
	return codec.Encode(string(payload)), nil
}

// Parse decodes blob and checks the envelope and every row without writing.
func Parse(blob string) (Envelope, error) {
	var env Envelope
	if err := codec.DecodeJSON(blob, &env); err != nil {
		return Envelope{}, err
	}
	if env.Profile == nil || env.Version == "" {
		return Envelope{}, fmt.Errorf("%w: missing profile or version", models.ErrInvalidFormat)
	}
	if err := validateEnvelope(env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
	}
	return env, nil
}

func validateEnvelope(env Envelope) error {
	if strings.TrimSpace(env.Profile.Name) == "" {
		return errors.New("profile: name is required")
	}
	if env.Profile.PIN != nil && *env.Profile.PIN != "" && !utils.ValidatePIN(*env.Profile.PIN) {
		return errors.New("profile: pin must be 4 digits")
	}
	for i, h := range env.WatchHistory {
		if err := utils.ValidateStruct(h); err != nil {
			return fmt.Errorf("watchHistory[%d]: %w", i, err)
		}
	}
	for i, w := range env.Watchlist {
		if err := utils.ValidateStruct(w); err != nil {
			return fmt.Errorf("watchlist[%d]: %w", i, err)
		}
	}
	for i, r := range env.Ratings {
		if err := utils.ValidateStruct(r); err != nil {
			return fmt.Errorf("ratings[%d]: %w", i, err)
		}
	}
	return nil
}

// Import adds the exported profile under a fresh id, followed by its rows
// with fresh ids. Nothing is written unless the whole payload validates and a
// profile slot is free. A storage failure after the profile is saved leaves a
// partial import in place.
func (s *Service) Import(blob string) (models.Profile, error) {
	env, err := Parse(blob)
	if err != nil {
		log.Printf("[transfer] import rejected: %v", err)
		return models.Profile{}, err
	}
	if err := s.profiles.CheckCapacity(); err != nil {
		return models.Profile{}, err
	}

	profile := *env.Profile
	profile.ID = uuid.NewString()
	if profile.AvatarColor == "" {
		profile.AvatarColor = models.DefaultAvatarColor
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = s.now().UTC()
	}
	if err := s.profiles.Save(profile); err != nil {
		return models.Profile{}, fmt.Errorf("import profile: %w", err)
	}

	for _, h := range env.WatchHistory {
		h.ID = uuid.NewString()
		h.ProfileID = profile.ID
		if _, err := s.collections.RecordWatch(h); err != nil {
			return profile, fmt.Errorf("import history: %w", err)
		}
	}
	for _, w := range env.Watchlist {
		w.ID = uuid.NewString()
		w.ProfileID = profile.ID
		if _, err := s.collections.AddToWatchlist(w); err != nil {
			return profile, fmt.Errorf("import watchlist: %w", err)
		}
	}
	for _, r := range env.Ratings {
		r.ID = uuid.NewString()
		r.ProfileID = profile.ID
		if _, err := s.collections.Rate(r); err != nil {
			return profile, fmt.Errorf("import ratings: %w", err)
		}
	}

	log.Printf("[transfer] imported profile=%s from export version=%s", profile.ID, env.Version)
	return profile, nil
}

// ImportProfile is Import behind a boolean boundary. It never panics.
func (s *Service) ImportProfile(blob string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[transfer] import panicked: %v", r)
			ok = false
		}
	}()
	_, err := s.Import(blob)
	return err == nil
}

// FileName returns the conventional export file name for a moment in time.
func FileName(at time.Time) string {
	return fmt.Sprintf("simplstream-profile-%d%s", at.UnixMilli(), FileExtension)
}

// ExportToFile writes the export of profileID to path on fs. A path without an
// extension gets FileExtension.
func (s *Service) ExportToFile(fs afero.Fs, path, profileID string) (string, error) {
	blob, err := s.Export(profileID)
	if err != nil {
		return "", err
	}
	if filepath.Ext(path) == "" {
		path += FileExtension
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, []byte(blob), 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// ImportFromFile imports the export stored at path on fs.
func (s *Service) ImportFromFile(fs afero.Fs, path string) (models.Profile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return models.Profile{}, fmt.Errorf("read export: %w", err)
	}
	return s.Import(string(data))
}
