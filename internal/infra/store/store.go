// Package store persists player state to a local JSON file.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/musila/player/internal/app/queue"
	"github.com/musila/player/internal/domain/track"
)

// DefaultStateFileName is the default name for the state file.
const DefaultStateFileName = "player_state.json"

// FileStore implements queue.Store on top of a JSON file. Play-state is
// excluded from the persisted shape by construction.
type FileStore struct {
	path string
}

// New creates a file store at the given path. An empty path resolves to the
// default location (<user config dir>/musila/player_state.json).
func New(path string) (*FileStore, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve config directory")
		}
		path = filepath.Join(configDir, "musila", DefaultStateFileName)
	}
	return &FileStore{path: path}, nil
}

// Path returns the path of the state file.
func (s *FileStore) Path() string {
	return s.path
}

// persistedState is the on-disk shape. IsPlaying is intentionally absent: a
// reload must not auto-resume audio.
type persistedState struct {
	Tracks       []persistedTrack `json:"tracks"`
	CurrentIndex int              `json:"current_index"`
	Volume       float64          `json:"volume"`
	Muted        bool             `json:"muted"`
	Shuffle      bool             `json:"shuffle"`
	Repeat       string           `json:"repeat"`
}

type persistedTrack struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Authors    []persistedAuthor `json:"authors,omitempty"`
	MediaURL   string            `json:"media_url"`
	ArtworkURL string            `json:"artwork_url,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
}

type persistedAuthor struct {
	Name    string `json:"name"`
	Surname string `json:"surname,omitempty"`
	Role    string `json:"role,omitempty"`
}

// Save writes the snapshot to disk, creating the directory when needed.
func (s *FileStore) Save(snap queue.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "failed to create state directory")
	}

	data, err := json.MarshalIndent(toPersisted(snap), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal player state")
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write state file")
	}
	return nil
}

// Load reads the snapshot from disk. Returns (nil, nil) when no state has
// been saved yet.
func (s *FileStore) Load() (*queue.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read state file")
	}

	var ps persistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, errors.Wrap(err, "failed to parse state file")
	}

	snap := fromPersisted(ps)
	return &snap, nil
}

func toPersisted(snap queue.Snapshot) persistedState {
	tracks := make([]persistedTrack, len(snap.Tracks))
	for i, t := range snap.Tracks {
		authors := make([]persistedAuthor, len(t.Authors))
		for j, a := range t.Authors {
			authors[j] = persistedAuthor{Name: a.Name, Surname: a.Surname, Role: a.Role}
		}
		tracks[i] = persistedTrack{
			ID:         t.ID,
			Title:      t.Title,
			Authors:    authors,
			MediaURL:   t.MediaURL,
			ArtworkURL: t.ArtworkURL,
			DurationMs: t.Duration.Milliseconds(),
		}
	}
	return persistedState{
		Tracks:       tracks,
		CurrentIndex: snap.CurrentIndex,
		Volume:       snap.Volume,
		Muted:        snap.Muted,
		Shuffle:      snap.Shuffle,
		Repeat:       snap.Repeat.String(),
	}
}

func fromPersisted(ps persistedState) queue.Snapshot {
	tracks := make([]track.Track, len(ps.Tracks))
	for i, pt := range ps.Tracks {
		authors := make([]track.Author, len(pt.Authors))
		for j, pa := range pt.Authors {
			authors[j] = track.Author{Name: pa.Name, Surname: pa.Surname, Role: pa.Role}
		}
		tracks[i] = track.Track{
			ID:         pt.ID,
			Title:      pt.Title,
			Authors:    authors,
			MediaURL:   pt.MediaURL,
			ArtworkURL: pt.ArtworkURL,
			Duration:   time.Duration(pt.DurationMs) * time.Millisecond,
		}
	}
	return queue.Snapshot{
		Tracks:       tracks,
		CurrentIndex: ps.CurrentIndex,
		Volume:       ps.Volume,
		Muted:        ps.Muted,
		Shuffle:      ps.Shuffle,
		Repeat:       queue.ParseRepeatMode(ps.Repeat),
	}
}
