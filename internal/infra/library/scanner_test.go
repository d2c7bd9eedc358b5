package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musila/player/internal/domain/track"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0600))
	return path
}

func TestScanner_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.mp3")
	writeFile(t, dir, "two.FLAC")
	writeFile(t, dir, "cover.jpg")
	writeFile(t, dir, "notes.txt")
	writeFile(t, dir, "sub/three.ogg")

	s := NewScanner(nil)
	tracks, err := s.Scan(dir)
	require.NoError(t, err)

	assert.Len(t, tracks, 3)
	for _, tr := range tracks {
		assert.NotEmpty(t, tr.ID)
		assert.True(t, tr.HasMedia())
	}
}

func TestScanner_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.mp3")
	writeFile(t, dir, "two.wav")

	s := NewScanner([]string{"wav"}) // leading dot optional
	tracks, err := s.Scan(dir)
	require.NoError(t, err)

	require.Len(t, tracks, 1)
	assert.Equal(t, ".wav", filepath.Ext(tracks[0].MediaURL))
}

func TestScanner_FallbackTitleFromFilename(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "my_demo-song.mp3")

	s := NewScanner(nil)
	tracks, err := s.Scan(dir)
	require.NoError(t, err)

	// The placeholder bytes carry no tags, so metadata degrades gracefully.
	require.Len(t, tracks, 1)
	assert.Equal(t, "my demo song", tracks[0].Title)
	assert.Empty(t, tracks[0].Authors)
}

func TestScanner_MissingPath(t *testing.T) {
	s := NewScanner(nil)
	_, err := s.Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestScanner_PathIsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "one.mp3")

	s := NewScanner(nil)
	_, err := s.Scan(path)
	assert.ErrorContains(t, err, "not a directory")
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "underscores", path: "/music/my_song.mp3", expected: "my song"},
		{name: "dashes", path: "/music/slow-burn.flac", expected: "slow burn"},
		{name: "mixed separators", path: "/music/a__b--c.ogg", expected: "a b c"},
		{name: "plain", path: "demo.wav", expected: "demo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, titleFromFilename(tt.path))
		})
	}
}

func TestParseAuthors(t *testing.T) {
	tests := []struct {
		name     string
		artist   string
		expected []track.Author
	}{
		{name: "empty", artist: "", expected: nil},
		{
			name:   "single artist",
			artist: "Ana Torres",
			expected: []track.Author{
				{Name: "Ana", Surname: "Torres", Role: track.RoleAuthor},
			},
		},
		{
			name:   "multiple artists",
			artist: "Ana Torres, Luis Mora",
			expected: []track.Author{
				{Name: "Ana", Surname: "Torres", Role: track.RoleAuthor},
				{Name: "Luis", Surname: "Mora", Role: track.RoleAuthor},
			},
		},
		{
			name:   "mononym",
			artist: "Björk",
			expected: []track.Author{
				{Name: "Björk", Role: track.RoleAuthor},
			},
		},
		{
			name:   "long surname",
			artist: "Juan de la Cruz",
			expected: []track.Author{
				{Name: "Juan", Surname: "de la Cruz", Role: track.RoleAuthor},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseAuthors(tt.artist))
		})
	}
}
