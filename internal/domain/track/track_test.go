package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_ArtistLine(t *testing.T) {
	tests := []struct {
		name     string
		authors  []Author
		expected string
	}{
		{
			name:     "no credits",
			authors:  nil,
			expected: "",
		},
		{
			name: "single author",
			authors: []Author{
				{Name: "Ana", Surname: "Torres", Role: "author"},
			},
			expected: "Ana Torres",
		},
		{
			name: "author role filtered from mixed credits",
			authors: []Author{
				{Name: "Ana", Surname: "Torres", Role: "author"},
				{Name: "Luis", Surname: "Mora", Role: "performer"},
				{Name: "Eva", Surname: "Ruiz", Role: "AUTHOR"},
			},
			expected: "Ana Torres, Eva Ruiz",
		},
		{
			name: "fallback to all credits when no author role",
			authors: []Author{
				{Name: "Luis", Surname: "Mora", Role: "performer"},
				{Name: "Eva", Surname: "Ruiz", Role: "producer"},
			},
			expected: "Luis Mora, Eva Ruiz",
		},
		{
			name: "missing surname",
			authors: []Author{
				{Name: "Björk", Role: "author"},
			},
			expected: "Björk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Track{ID: "t1", Title: "Song", Authors: tt.authors}
			assert.Equal(t, tt.expected, tr.ArtistLine())
		})
	}
}

func TestTrack_HasMedia(t *testing.T) {
	tests := []struct {
		name     string
		mediaURL string
		expected bool
	}{
		{name: "valid url", mediaURL: "https://cdn.musila.app/audio/t1.mp3", expected: true},
		{name: "local path", mediaURL: "/music/demo.flac", expected: true},
		{name: "empty", mediaURL: "", expected: false},
		{name: "whitespace only", mediaURL: "   ", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Track{ID: "t1", MediaURL: tt.mediaURL}
			assert.Equal(t, tt.expected, tr.HasMedia())
		})
	}
}

func TestIndexByID(t *testing.T) {
	tracks := []Track{
		{ID: "a"},
		{ID: "b"},
		{ID: "b"}, // first match wins
		{ID: "c"},
	}

	assert.Equal(t, 0, IndexByID(tracks, "a"))
	assert.Equal(t, 1, IndexByID(tracks, "b"))
	assert.Equal(t, 3, IndexByID(tracks, "c"))
	assert.Equal(t, -1, IndexByID(tracks, "missing"))
	assert.Equal(t, -1, IndexByID(nil, "a"))
}
