// Package player provides the playback surface adapter: it reconciles the
// declarative queue controller state against a real-time audio output.
package player

import "time"

// Output is the media output primitive the adapter drives. Exactly one
// track is loaded at a time; the adapter is the only component allowed to
// touch it.
type Output interface {
	// Load replaces the loaded source with the given URL.
	Load(url string) error

	// Play requests playback start. The returned channel settles with nil
	// once playback has actually started, or with an error when the start
	// was rejected (decode failure, device error). It may settle at any
	// time relative to later commands.
	Play() <-chan error

	// Pause stops audible output without unloading the source.
	Pause()

	// Position returns the current playback position.
	Position() time.Duration

	// Seek moves the playback position.
	Seek(pos time.Duration)

	// Duration returns the duration of the loaded source, zero if unknown.
	Duration() time.Duration

	// SetVolume sets the output gain, 0 (silent) to 1 (full).
	SetVolume(v float64)

	// Progress delivers position updates while playing.
	Progress() <-chan time.Duration

	// Finished signals the natural end of the loaded source.
	Finished() <-chan struct{}

	// Close releases the output.
	Close() error
}
