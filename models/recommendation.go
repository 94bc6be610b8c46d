package models

import (
	"encoding/json"
	"time"
)

// SavedRecommendations is a snapshot of a recommendation run a profile chose to keep.
// The payloads are stored verbatim; their shape belongs to the recommender.
type SavedRecommendations struct {
	ID              string          `json:"id"`
	ProfileID       string          `json:"profile_id"`
	Recommendations json.RawMessage `json:"recommendations"`
	Filters         json.RawMessage `json:"filters"`
	SavedAt         time.Time       `json:"saved_at"`
}
