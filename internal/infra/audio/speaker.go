// Package audio provides a beep-backed implementation of the player's
// audio output primitive.
package audio

import (
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"
	extOGG  = ".ogg"
	extOGA  = ".oga"
)

const progressInterval = 200 * time.Millisecond

// Settings configures the speaker output. Decoded from the config file's
// output settings map.
type Settings struct {
	SampleRate int `mapstructure:"sample_rate"`
	BufferMs   int `mapstructure:"buffer_ms"`
}

func (s *Settings) withDefaults() Settings {
	out := Settings{SampleRate: 44100, BufferMs: 100}
	if s != nil {
		if s.SampleRate > 0 {
			out.SampleRate = s.SampleRate
		}
		if s.BufferMs > 0 {
			out.BufferMs = s.BufferMs
		}
	}
	return out
}

var (
	speakerOnce sync.Once
	speakerErr  error
)

// loadedTrack bundles all resources for a single loaded source. drained is
// set from the mixer callback when the sequence plays to its end; the mixer
// removes drained streamers, so a drained track must be re-queued before it
// can sound again.
type loadedTrack struct {
	cleanup  func()
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	drained  atomic.Bool
}

func (t *loadedTrack) close() {
	if t.streamer != nil {
		_ = t.streamer.Close()
	}
	if t.cleanup != nil {
		t.cleanup()
	}
}

// Speaker renders audio through the system output device using beep. It
// implements the adapter's Output interface.
type Speaker struct {
	mu sync.Mutex

	settings   Settings
	sampleRate beep.SampleRate

	current *loadedTrack
	gain    float64

	progressCh chan time.Duration
	finishedCh chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// NewSpeaker creates a speaker output with the given settings.
func NewSpeaker(settings *Settings) *Speaker {
	s := &Speaker{
		settings:   settings.withDefaults(),
		gain:       1.0,
		progressCh: make(chan time.Duration, 4),
		finishedCh: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	s.sampleRate = beep.SampleRate(s.settings.SampleRate)
	go s.progressLoop()
	return s
}

// Load replaces the loaded source with the given URL. Remote http(s)
// sources are fetched to a temporary file before decoding.
func (s *Speaker) Load(mediaURL string) error {
	path, cleanup, err := resolveSource(mediaURL)
	if err != nil {
		return err
	}

	streamer, format, err := decodeFile(path)
	if err != nil {
		cleanup()
		return err
	}

	if err := s.initSpeaker(); err != nil {
		_ = streamer.Close()
		cleanup()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	speaker.Clear()
	if s.current != nil {
		s.current.close()
	}

	var renderer beep.Streamer = streamer
	if format.SampleRate != s.sampleRate {
		renderer = beep.Resample(4, format.SampleRate, s.sampleRate, streamer)
	}

	ctrl := &beep.Ctrl{Streamer: renderer, Paused: true}
	vol := &effects.Volume{Streamer: ctrl, Base: 2}
	vol.Volume, vol.Silent = gainFor(s.gain)

	s.current = &loadedTrack{
		cleanup:  cleanup,
		streamer: streamer,
		format:   format,
		ctrl:     ctrl,
		volume:   vol,
	}

	s.enqueue(s.current)
	return nil
}

// enqueue hands the track's sequence to the mixer. The callback fires when
// the sequence drains; it must not touch s.mu (the mixer holds its own lock
// while streaming).
func (s *Speaker) enqueue(t *loadedTrack) {
	speaker.Play(beep.Seq(t.volume, beep.Callback(func() {
		t.drained.Store(true)
		select {
		case s.finishedCh <- struct{}{}:
		default:
		}
	})))
}

// Play requests playback start. The returned channel settles immediately:
// the speaker either has a loaded source or it does not.
func (s *Speaker) Play() <-chan error {
	ch := make(chan error, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		ch <- errors.New("no source loaded")
		return ch
	}

	// A drained sequence has been removed from the mixer: rewind if still at
	// the end and queue a fresh sequence, otherwise unpausing does nothing.
	redo := s.current.drained.Swap(false)
	speaker.Lock()
	s.current.ctrl.Paused = false
	if redo && s.current.streamer.Position() >= s.current.streamer.Len() {
		if err := s.current.streamer.Seek(0); err != nil {
			zlog.Warn().Err(err).Msg("audio: rewind failed")
		}
	}
	speaker.Unlock()
	if redo {
		s.enqueue(s.current)
	}

	ch <- nil
	return ch
}

// Pause stops audible output without unloading the source.
func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	speaker.Lock()
	s.current.ctrl.Paused = true
	speaker.Unlock()
}

// Position returns the current playback position.
func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *Speaker) positionLocked() time.Duration {
	if s.current == nil {
		return 0
	}
	speaker.Lock()
	pos := s.current.format.SampleRate.D(s.current.streamer.Position())
	speaker.Unlock()
	return pos
}

// Seek moves the playback position.
func (s *Speaker) Seek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	speaker.Lock()
	n := s.current.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if max := s.current.streamer.Len(); n > max {
		n = max
	}
	if err := s.current.streamer.Seek(n); err != nil {
		zlog.Warn().Err(err).Msg("audio: seek failed")
	}
	speaker.Unlock()
}

// Duration returns the duration of the loaded source, zero when nothing is
// loaded.
func (s *Speaker) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return 0
	}
	return s.current.format.SampleRate.D(s.current.streamer.Len())
}

// SetVolume sets the output gain from 0 (silent) to 1 (full).
func (s *Speaker) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gain = v
	if s.current == nil {
		return
	}
	speaker.Lock()
	s.current.volume.Volume, s.current.volume.Silent = gainFor(v)
	speaker.Unlock()
}

// Progress delivers position updates while playing.
func (s *Speaker) Progress() <-chan time.Duration {
	return s.progressCh
}

// Finished signals the natural end of the loaded source.
func (s *Speaker) Finished() <-chan struct{} {
	return s.finishedCh
}

// Close releases the loaded source and stops the progress loop.
func (s *Speaker) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.current != nil {
			speaker.Clear()
			s.current.close()
			s.current = nil
		}
	})
	return nil
}

func (s *Speaker) initSpeaker() error {
	speakerOnce.Do(func() {
		buffer := s.sampleRate.N(time.Duration(s.settings.BufferMs) * time.Millisecond)
		speakerErr = speaker.Init(s.sampleRate, buffer)
	})
	return errors.Wrap(speakerErr, "failed to initialize speaker")
}

// progressLoop emits the playback position at a fixed interval while a
// source is loaded and not paused.
func (s *Speaker) progressLoop() {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			var (
				playing bool
				pos     time.Duration
			)
			if s.current != nil {
				speaker.Lock()
				playing = !s.current.ctrl.Paused
				pos = s.current.format.SampleRate.D(s.current.streamer.Position())
				speaker.Unlock()
			}
			s.mu.Unlock()

			if !playing {
				continue
			}
			select {
			case s.progressCh <- pos:
			default:
			}
		}
	}
}

// gainFor maps a linear 0..1 volume to beep's logarithmic volume control.
func gainFor(v float64) (volume float64, silent bool) {
	if v <= 0 {
		return 0, true
	}
	if v > 1 {
		v = 1
	}
	return math.Log2(v), false
}

// resolveSource returns a local file path for the given media URL, fetching
// remote sources to a temporary file. The cleanup func removes any
// temporary artifact and is safe to call unconditionally.
func resolveSource(mediaURL string) (string, func(), error) {
	noop := func() {}

	if strings.HasPrefix(mediaURL, "http://") || strings.HasPrefix(mediaURL, "https://") {
		resp, err := http.Get(mediaURL)
		if err != nil {
			return "", noop, errors.Wrap(err, "failed to fetch media")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", noop, errors.Newf("failed to fetch media: status %d", resp.StatusCode)
		}

		tmp, err := os.CreateTemp("", "musila-*"+extFromURL(mediaURL))
		if err != nil {
			return "", noop, errors.Wrap(err, "failed to create temp file")
		}
		if _, err := io.Copy(tmp, resp.Body); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return "", noop, errors.Wrap(err, "failed to download media")
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return "", noop, errors.Wrap(err, "failed to write temp file")
		}
		name := tmp.Name()
		return name, func() { os.Remove(name) }, nil
	}

	if _, err := os.Stat(mediaURL); err != nil {
		return "", noop, errors.Wrap(err, "media file not accessible")
	}
	return mediaURL, noop, nil
}

// extFromURL extracts a lowercase file extension from a URL or path,
// ignoring query strings.
func extFromURL(mediaURL string) string {
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" {
		return strings.ToLower(filepath.Ext(u.Path))
	}
	return strings.ToLower(filepath.Ext(mediaURL))
}

// decodeFile opens and decodes an audio file by extension.
func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "failed to open media file")
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch extFromURL(path) {
	case extMP3:
		streamer, format, err = mp3.Decode(f)
	case extFLAC:
		streamer, format, err = flac.Decode(f)
	case extWAV:
		streamer, format, err = wav.Decode(f)
	case extOGG, extOGA:
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, errors.Newf("unsupported media format: %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, errors.Wrap(err, "failed to decode media")
	}
	return streamer, format, nil
}
