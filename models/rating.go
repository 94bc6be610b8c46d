package models

import "time"

// Genre is a snapshot of a catalog genre at rating time.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Rating is a 1-5 star score a profile gave a catalog title.
type Rating struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	TMDBID    int       `json:"tmdb_id" validate:"required"`
	MediaType MediaType `json:"media_type" validate:"required,oneof=movie tv"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	Genres    []Genre   `json:"genres"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SameTitle reports whether r and other rate the same title for the same profile.
func (r Rating) SameTitle(other Rating) bool {
	return r.ProfileID == other.ProfileID && r.TMDBID == other.TMDBID && r.MediaType == other.MediaType
}
