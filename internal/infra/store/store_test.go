package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musila/player/internal/app/queue"
	"github.com/musila/player/internal/domain/track"
)

func testSnapshot() queue.Snapshot {
	return queue.Snapshot{
		Tracks: []track.Track{
			{
				ID:    "t1",
				Title: "First",
				Authors: []track.Author{
					{Name: "Ana", Surname: "Torres", Role: "author"},
				},
				MediaURL:   "https://cdn.musila.app/t1.mp3",
				ArtworkURL: "https://cdn.musila.app/t1.jpg",
				Duration:   3 * time.Minute,
			},
			{ID: "t2", Title: "Second", MediaURL: "https://cdn.musila.app/t2.mp3"},
		},
		CurrentIndex: 1,
		IsPlaying:    true, // must not survive the roundtrip
		Volume:       0.65,
		Muted:        true,
		Shuffle:      true,
		Repeat:       queue.RepeatAll,
	}
}

func TestFileStore_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "player_state.json")
	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(testSnapshot()))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Len(t, loaded.Tracks, 2)
	assert.Equal(t, "t1", loaded.Tracks[0].ID)
	assert.Equal(t, "Ana Torres", loaded.Tracks[0].ArtistLine())
	assert.Equal(t, 3*time.Minute, loaded.Tracks[0].Duration)
	assert.Equal(t, 1, loaded.CurrentIndex)
	assert.Equal(t, 0.65, loaded.Volume)
	assert.True(t, loaded.Muted)
	assert.True(t, loaded.Shuffle)
	assert.Equal(t, queue.RepeatAll, loaded.Repeat)
	assert.False(t, loaded.IsPlaying, "play-state is never persisted")
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	loaded, err := s.Load()
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := New(path)
	require.NoError(t, err)

	loaded, err := s.Load()
	assert.Error(t, err)
	assert.Nil(t, loaded)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(testSnapshot()))

	empty := queue.Snapshot{CurrentIndex: -1, Volume: 0.8}
	require.NoError(t, s.Save(empty))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Empty(t, loaded.Tracks)
	assert.Equal(t, -1, loaded.CurrentIndex)
	assert.Equal(t, queue.RepeatOff, loaded.Repeat)
}

func TestFileStore_DefaultPath(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	assert.Contains(t, s.Path(), filepath.Join("musila", DefaultStateFileName))
}
