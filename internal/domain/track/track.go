// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// RoleAuthor is the credit role used for display attribution.
const RoleAuthor = "author"

// Author represents a credited contributor on a track.
type Author struct {
	Name    string // Given name
	Surname string // Family name
	Role    string // Credit role ("author", "performer", ...)
}

// FullName returns the author's display name.
func (a Author) FullName() string {
	if a.Surname == "" {
		return a.Name
	}
	return a.Name + " " + a.Surname
}

// Track represents a single playable item.
// The ID is unique within any queue; first match by ID is canonical.
type Track struct {
	ID         string        // Stable unique identifier
	Title      string        // Track title
	Authors    []Author      // Credited contributors
	MediaURL   string        // URL or URI resolvable by the audio output
	ArtworkURL string        // Optional artwork URL
	Duration   time.Duration // Known duration, zero if unknown
}

// HasMedia reports whether the track carries a playable media reference.
func (t *Track) HasMedia() bool {
	return strings.TrimSpace(t.MediaURL) != ""
}

// ArtistLine returns the display credit line: authors with the "author" role,
// joined with commas. Falls back to all credited contributors when no author
// role is present, and to an empty string when there are no credits at all.
func (t *Track) ArtistLine() string {
	names := make([]string, 0, len(t.Authors))
	for _, a := range t.Authors {
		if strings.EqualFold(a.Role, RoleAuthor) {
			names = append(names, a.FullName())
		}
	}
	if len(names) == 0 {
		for _, a := range t.Authors {
			names = append(names, a.FullName())
		}
	}
	return strings.Join(names, ", ")
}

// IndexByID returns the position of the first track with the given ID,
// or -1 if no track matches.
func IndexByID(tracks []Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
