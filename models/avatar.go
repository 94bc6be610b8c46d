package models

// AvatarPosition is the focal point of a custom avatar, in percent of each axis.
type AvatarPosition struct {
	X float64 `json:"x" validate:"gte=0,lte=100"`
	Y float64 `json:"y" validate:"gte=0,lte=100"`
}

// CustomAvatar replaces the initials/colour fallback for one profile.
type CustomAvatar struct {
	URL      string         `json:"url" validate:"required"`
	Position AvatarPosition `json:"position"`
	Zoom     float64        `json:"zoom" validate:"gte=1"`
}
