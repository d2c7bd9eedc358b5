// Package queue provides the playback queue controller: an ordered track
// queue with position tracking, shuffle/repeat semantics, and transport
// commands.
package queue

import "github.com/musila/player/internal/domain/track"

// RepeatMode represents the looping behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // No looping
	RepeatOne                   // Restart current track at natural end
	RepeatAll                   // Wrap around at queue boundaries
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// ParseRepeatMode converts a string to a RepeatMode.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "one":
		return RepeatOne
	case "all":
		return RepeatAll
	default:
		return RepeatOff
	}
}

// cycle advances through the fixed order off -> one -> all -> off.
func (m RepeatMode) cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatOff
	}
}

// Snapshot is an immutable view of the controller state, delivered to
// observers and used for persistence.
type Snapshot struct {
	Tracks       []track.Track
	CurrentIndex int // -1 when the queue is empty
	IsPlaying    bool
	Volume       float64 // 0..1
	Muted        bool
	Shuffle      bool
	Repeat       RepeatMode
}

// Current returns the selected track, or nil if nothing is selected.
func (s Snapshot) Current() *track.Track {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Tracks) {
		return nil
	}
	return &s.Tracks[s.CurrentIndex]
}

// Store is the persistence port for controller state. Play-state is never
// persisted; a reload must not auto-resume audio.
type Store interface {
	Save(s Snapshot) error
	// Load returns (nil, nil) when no state has been saved yet.
	Load() (*Snapshot, error)
}
