package profile

import "time"

// Sub is the embedded "profile" sub-object of a user document. It carries the
// display data the rating view projects.
type Sub struct {
	Name       string `json:"name,omitempty"`
	HasPhotos  bool   `json:"hasPhotos"`
	PhotoCount int    `json:"photoCount"`
}

// Document is the durable record of a user, one per identity, keyed by the
// platform-assigned unique id.
type Document struct {
	ID          string
	PhoneNumber string
	Name        string
	CreatedAt   time.Time
	LastLoginAt time.Time
	Profile     *Sub
}

// Patch captures a merge-update. Nil fields are left untouched.
type Patch struct {
	Name        *string
	LastLoginAt *time.Time
	Profile     *Sub
}

// Summary is the read-only projection used by the rating list.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PhotoCount int    `json:"photo_count"`
}
