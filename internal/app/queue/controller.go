package queue

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/musila/player/internal/domain/track"
)

// DefaultVolume is the volume used when no persisted state exists.
const DefaultVolume = 0.8

// Config holds controller configuration. The initial values apply until
// Restore replaces them with persisted state.
type Config struct {
	Store   Store      // Optional persistence port
	Rand    *rand.Rand // Optional random source (injectable for tests)
	Volume  *float64   // Initial volume; DefaultVolume when nil
	Shuffle bool       // Initial shuffle flag
	Repeat  RepeatMode // Initial repeat mode
}

// Controller owns the playback queue state machine. All commands are
// synchronous state transitions; boundary conditions are no-ops, never
// errors. Observers are notified synchronously after every state change.
type Controller struct {
	mu sync.RWMutex

	tracks       []track.Track
	currentIndex int
	isPlaying    bool
	volume       float64
	muted        bool
	shuffle      bool
	repeat       RepeatMode

	rng   *rand.Rand
	store Store

	subscribers map[string]func(Snapshot)
}

// NewController creates a new queue controller.
func NewController(cfg Config) *Controller {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	volume := DefaultVolume
	if cfg.Volume != nil {
		volume = *cfg.Volume
	}
	return &Controller{
		tracks:       make([]track.Track, 0),
		currentIndex: -1,
		volume:       clampVolume(volume),
		shuffle:      cfg.Shuffle,
		repeat:       cfg.Repeat,
		rng:          rng,
		store:        cfg.Store,
		subscribers:  make(map[string]func(Snapshot)),
	}
}

// Subscribe registers an observer and returns its subscription ID.
// The callback runs synchronously on the goroutine issuing a command.
func (c *Controller) Subscribe(fn func(Snapshot)) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New().String()
	c.subscribers[id] = fn
	return id
}

// Unsubscribe removes an observer.
func (c *Controller) Unsubscribe(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribers, id)
}

// Restore hydrates the controller from the persistence port. Play-state is
// never restored. Read or parse failures fall back to defaults.
func (c *Controller) Restore() {
	if c.store == nil {
		return
	}

	snap, err := c.store.Load()
	if err != nil {
		zlog.Warn().Err(err).Msg("queue: failed to restore persisted state, using defaults")
		return
	}
	if snap == nil {
		return
	}

	c.mu.Lock()
	c.tracks = append([]track.Track(nil), snap.Tracks...)
	c.currentIndex = snap.CurrentIndex
	if len(c.tracks) == 0 {
		c.currentIndex = -1
	} else if c.currentIndex < 0 || c.currentIndex >= len(c.tracks) {
		c.currentIndex = 0
	}
	c.isPlaying = false
	c.volume = clampVolume(snap.Volume)
	c.muted = snap.Muted
	c.shuffle = snap.Shuffle
	c.repeat = snap.Repeat
	snapshot, subs := c.snapshotAndSubscribersLocked()
	c.mu.Unlock()

	zlog.Debug().Int("tracks", len(snapshot.Tracks)).Int("index", snapshot.CurrentIndex).
		Msg("queue: restored persisted state")
	notify(subs, snapshot)
}

// SetQueue replaces the queue wholesale. The start index is clamped into
// range; an empty queue resets the index to -1. Playback stays paused until
// an explicit play command.
func (c *Controller) SetQueue(tracks []track.Track, startIndex int) {
	c.mu.Lock()
	c.tracks = append([]track.Track(nil), tracks...)
	switch {
	case len(c.tracks) == 0:
		c.currentIndex = -1
	case startIndex < 0:
		c.currentIndex = 0
	case startIndex >= len(c.tracks):
		c.currentIndex = len(c.tracks) - 1
	default:
		c.currentIndex = startIndex
	}
	c.isPlaying = false
	c.commitLocked()
}

// PlayTrack selects the given track and starts playing. When newQueue is
// non-nil it replaces the queue wholesale; otherwise the existing queue is
// kept (or becomes the singleton [t] when empty). An unknown track ID is
// appended to the queue.
func (c *Controller) PlayTrack(t track.Track, newQueue []track.Track) {
	c.mu.Lock()
	switch {
	case newQueue != nil:
		c.tracks = append([]track.Track(nil), newQueue...)
	case len(c.tracks) == 0:
		c.tracks = []track.Track{t}
	}

	idx := track.IndexByID(c.tracks, t.ID)
	if idx < 0 {
		c.tracks = append(c.tracks, t)
		idx = len(c.tracks) - 1
	}
	c.currentIndex = idx
	c.isPlaying = true
	c.commitLocked()
}

// Play sets the play intent. No-op when nothing is selected.
func (c *Controller) Play() {
	c.mu.Lock()
	if c.currentIndex < 0 || c.isPlaying {
		c.mu.Unlock()
		return
	}
	c.isPlaying = true
	c.commitLocked()
}

// Pause clears the play intent. No-op when nothing is selected.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.currentIndex < 0 || !c.isPlaying {
		c.mu.Unlock()
		return
	}
	c.isPlaying = false
	c.commitLocked()
}

// TogglePlay flips the play intent. No-op when nothing is selected.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	if c.currentIndex < 0 {
		c.mu.Unlock()
		return
	}
	c.isPlaying = !c.isPlaying
	c.commitLocked()
}

// Next advances the queue position. Under shuffle a uniformly random index
// different from the current one is picked. Without shuffle the position
// advances by one, wrapping to the start only under repeat-all; at the end
// of the queue without wrap the position stays and playback stops.
// Repeat-one does not affect explicit skips.
func (c *Controller) Next() {
	c.mu.Lock()
	if len(c.tracks) == 0 {
		c.mu.Unlock()
		return
	}

	if c.shuffle {
		idx := c.randomOtherIndexLocked()
		if idx == c.currentIndex {
			c.mu.Unlock()
			return
		}
		c.currentIndex = idx
		c.commitLocked()
		return
	}

	next := c.currentIndex + 1
	if next >= len(c.tracks) {
		if c.repeat == RepeatAll {
			c.currentIndex = 0
			c.commitLocked()
			return
		}
		// End of queue reached, no further auto-advance.
		if !c.isPlaying {
			c.mu.Unlock()
			return
		}
		c.isPlaying = false
		c.commitLocked()
		return
	}
	c.currentIndex = next
	c.commitLocked()
}

// Prev moves the queue position backwards, symmetric to Next: shuffle picks
// a different random index; otherwise the position decrements, wrapping to
// the last track only under repeat-all and clamping at zero without it.
func (c *Controller) Prev() {
	c.mu.Lock()
	if len(c.tracks) == 0 {
		c.mu.Unlock()
		return
	}

	if c.shuffle {
		idx := c.randomOtherIndexLocked()
		if idx == c.currentIndex {
			c.mu.Unlock()
			return
		}
		c.currentIndex = idx
		c.commitLocked()
		return
	}

	prev := c.currentIndex - 1
	if prev < 0 {
		if c.repeat == RepeatAll {
			c.currentIndex = len(c.tracks) - 1
			c.commitLocked()
			return
		}
		c.mu.Unlock()
		return
	}
	c.currentIndex = prev
	c.commitLocked()
}

// ToggleShuffle flips the shuffle flag without reshuffling or moving the
// current position.
func (c *Controller) ToggleShuffle() {
	c.mu.Lock()
	c.shuffle = !c.shuffle
	c.commitLocked()
}

// CycleRepeat advances the repeat mode through off -> one -> all -> off.
func (c *Controller) CycleRepeat() {
	c.mu.Lock()
	c.repeat = c.repeat.cycle()
	c.commitLocked()
}

// SetVolume sets the volume, clamped to [0,1]. The mute flag is untouched.
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	c.volume = clampVolume(v)
	c.commitLocked()
}

// ToggleMute flips the mute flag. The stored volume is preserved so that
// unmuting restores the prior level.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	c.muted = !c.muted
	c.commitLocked()
}

// Current returns the selected track, if any.
func (c *Controller) Current() (track.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.currentIndex < 0 || c.currentIndex >= len(c.tracks) {
		return track.Track{}, false
	}
	return c.tracks[c.currentIndex], true
}

// Snapshot returns a copy of the full controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// CurrentIndex returns the current queue position (-1 when empty).
func (c *Controller) CurrentIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentIndex
}

// IsPlaying returns the desired play state.
func (c *Controller) IsPlaying() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isPlaying
}

// Len returns the number of tracks in the queue.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// randomOtherIndexLocked picks a uniformly random index different from the
// current one. A single-track queue stays put. Must be called with lock held.
func (c *Controller) randomOtherIndexLocked() int {
	n := len(c.tracks)
	if n <= 1 {
		return c.currentIndex
	}
	if c.currentIndex < 0 || c.currentIndex >= n {
		return c.rng.Intn(n)
	}
	// Pick from indices excluding the current one; no rejection loop needed.
	idx := c.rng.Intn(n - 1)
	if idx >= c.currentIndex {
		idx++
	}
	return idx
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Tracks:       append([]track.Track(nil), c.tracks...),
		CurrentIndex: c.currentIndex,
		IsPlaying:    c.isPlaying,
		Volume:       c.volume,
		Muted:        c.muted,
		Shuffle:      c.shuffle,
		Repeat:       c.repeat,
	}
}

func (c *Controller) snapshotAndSubscribersLocked() (Snapshot, []func(Snapshot)) {
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return c.snapshotLocked(), subs
}

// commitLocked persists the new state and notifies observers. It releases
// the lock: callbacks must never run under it.
func (c *Controller) commitLocked() {
	snap, subs := c.snapshotAndSubscribersLocked()
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(snap); err != nil {
			zlog.Warn().Err(err).Msg("queue: failed to persist state")
		}
	}
	notify(subs, snap)
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
