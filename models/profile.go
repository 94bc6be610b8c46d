package models

import (
	"fmt"
	"time"
)

const (
	// MaxProfiles caps how many local profiles can exist at once.
	MaxProfiles = 10
	// DefaultAvatarColor is used when a profile is created without a colour token.
	DefaultAvatarColor = "#3B82F6"
)

// Profile models a local user persona; every per-user collection hangs off its ID.
type Profile struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name" validate:"required"`
	AvatarColor          string    `json:"avatar_color"`
	PIN                  *string   `json:"pin"`
	SecurityWord         *string   `json:"security_word"`
	AdsRemoved           bool      `json:"ads_removed"`
	CreatedAt            time.Time `json:"created_at"`
	FirstLogin           *bool     `json:"first_login,omitempty"`
	SeasonalShown        string    `json:"seasonal_shown,omitempty"`
	SearchHistoryEnabled *bool     `json:"search_history_enabled,omitempty"`
}

// HasPIN reports whether the profile is protected.
func (p Profile) HasPIN() bool {
	return p.PIN != nil && *p.PIN != ""
}

// CanRecoverPIN reports whether the "Forgot PIN" path is reachable for this profile.
func (p Profile) CanRecoverPIN() bool {
	return p.HasPIN() && p.SecurityWord != nil && *p.SecurityWord != ""
}

// SearchHistoryOn reports the search-history toggle; unset means enabled.
func (p Profile) SearchHistoryOn() bool {
	return p.SearchHistoryEnabled == nil || *p.SearchHistoryEnabled
}

// IsFirstLogin reports whether the welcome flow still has to be shown.
func (p Profile) IsFirstLogin() bool {
	return p.FirstLogin != nil && *p.FirstLogin
}

// SeasonalKey formats the "month-day" key recorded in SeasonalShown. Months
// are zero-based to match keys already written by the web client.
func SeasonalKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", int(t.Month())-1, t.Day())
}

// ProfileInput captures the fields a user supplies when creating or editing a profile.
type ProfileInput struct {
	Name         string `json:"name"`
	AvatarColor  string `json:"avatar_color,omitempty"`
	PIN          string `json:"pin,omitempty"`
	ConfirmPIN   string `json:"confirm_pin,omitempty"`
	SecurityWord string `json:"security_word,omitempty"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
