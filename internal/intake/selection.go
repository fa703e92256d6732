// Package intake accepts a bounded batch of photos and uploads it.
package intake

import (
	"fmt"
)

// Default selection bounds.
const (
	DefaultMinPhotos = 10
	DefaultMaxPhotos = 20
)

// File is a user-selected image, client-side only until upload.
type File struct {
	Name        string
	Data        []byte
	ContentType string
}

// LimitError rejects a selection action that would exceed the maximum.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("You can only upload up to %d photos. Please select fewer photos.", e.Max)
}

// MinimumError rejects an upload attempt below the minimum.
type MinimumError struct {
	Min int
}

func (e *MinimumError) Error() string {
	return fmt.Sprintf("Please select at least %d photos.", e.Min)
}

// Selection accumulates files for one intake submission, enforcing
// minPhotos <= count <= maxPhotos.
type Selection struct {
	min, max int
	files    []File
}

// NewSelection builds a selection with the given closed interval. Non-positive
// bounds fall back to the defaults.
func NewSelection(minPhotos, maxPhotos int) *Selection {
	if minPhotos <= 0 {
		minPhotos = DefaultMinPhotos
	}
	if maxPhotos <= 0 {
		maxPhotos = DefaultMaxPhotos
	}
	return &Selection{min: minPhotos, max: maxPhotos}
}

// Add appends the batch, or rejects it outright when the combined count would
// exceed the maximum; the existing selection is left unchanged either way a
// rejection happens.
func (s *Selection) Add(files ...File) error {
	if len(s.files)+len(files) > s.max {
		return &LimitError{Max: s.max}
	}
	s.files = append(s.files, files...)
	return nil
}

// Remove drops the file at index; supported any time before upload starts.
func (s *Selection) Remove(index int) error {
	if index < 0 || index >= len(s.files) {
		return fmt.Errorf("intake: no photo at index %d", index)
	}
	s.files = append(s.files[:index], s.files[index+1:]...)
	return nil
}

// Count reports the running selection size.
func (s *Selection) Count() int { return len(s.files) }

// Ready reports whether upload is enabled: count has reached the minimum.
func (s *Selection) Ready() bool { return len(s.files) >= s.min }

// Min returns the lower bound.
func (s *Selection) Min() int { return s.min }

// Max returns the upper bound.
func (s *Selection) Max() int { return s.max }

// Files returns the selection in order.
func (s *Selection) Files() []File {
	out := make([]File, len(s.files))
	copy(out, s.files)
	return out
}

func (s *Selection) clear() {
	s.files = nil
}
