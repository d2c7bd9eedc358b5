package player

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/musila/player/internal/app/queue"
)

// Progress describes the playback position of the loaded track.
type Progress struct {
	Position time.Duration
	Duration time.Duration
	Percent  float64 // 0..100, 0 when duration is unknown
}

// playResult carries the settled play future back into the event loop,
// tagged with the generation that issued it.
type playResult struct {
	generation uint64
	err        error
}

// Adapter bridges the queue controller to an Output. The controller state
// is the single source of truth for desired playback; the output's actual
// state only feeds back through the defined event translations (progress
// and end-of-track).
type Adapter struct {
	ctrl *queue.Controller
	out  Output

	mu         sync.Mutex
	currentID  string
	playing    bool
	volume     float64
	volumeSet  bool
	generation uint64
	progress   Progress
	onProgress func(Progress)

	snapshots   chan queue.Snapshot
	playResults chan playResult
	subID       string
}

// New creates an adapter bound to the given controller and output. The
// adapter subscribes to the controller immediately; call Run to start
// processing.
func New(ctrl *queue.Controller, out Output) *Adapter {
	a := &Adapter{
		ctrl:        ctrl,
		out:         out,
		snapshots:   make(chan queue.Snapshot, 1),
		playResults: make(chan playResult, 4),
	}
	a.subID = ctrl.Subscribe(a.enqueueSnapshot)
	return a
}

// SetOnProgress registers a hook invoked on every progress update and on
// user scrubbing. Rendering layers use it to fill a progress bar.
func (a *Adapter) SetOnProgress(fn func(Progress)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onProgress = fn
}

// LastProgress returns the most recently observed progress.
func (a *Adapter) LastProgress() Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress
}

// Run processes controller snapshots and output events until the context
// is cancelled. It applies the controller's current state on entry.
func (a *Adapter) Run(ctx context.Context) {
	a.reconcile(a.ctrl.Snapshot())

	for {
		select {
		case <-ctx.Done():
			a.ctrl.Unsubscribe(a.subID)
			if err := a.out.Close(); err != nil {
				zlog.Warn().Err(err).Msg("player: failed to close audio output")
			}
			return
		case snap := <-a.snapshots:
			a.reconcile(snap)
		case pos := <-a.out.Progress():
			a.handleProgress(pos)
		case <-a.out.Finished():
			a.handleFinished()
		case res := <-a.playResults:
			a.handlePlayResult(res)
		}
	}
}

// SeekPercent translates a 0-100 scrub position into an output seek. Seek
// position is not controller state, so this bypasses the controller.
func (a *Adapter) SeekPercent(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	dur := a.out.Duration()
	if dur <= 0 {
		return
	}
	pos := time.Duration(percent / 100 * float64(dur))
	a.out.Seek(pos)
	a.updateProgress(pos, dur)
}

// enqueueSnapshot hands a snapshot to the event loop, latest-wins: a stale
// pending snapshot is replaced rather than blocking the controller.
func (a *Adapter) enqueueSnapshot(s queue.Snapshot) {
	for {
		select {
		case a.snapshots <- s:
			return
		default:
			select {
			case <-a.snapshots:
			default:
			}
		}
	}
}

// reconcile drives the output toward the given controller state.
func (a *Adapter) reconcile(snap queue.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.applyVolumeLocked(snap)

	cur := snap.Current()
	curID := ""
	if cur != nil {
		curID = cur.ID
	}

	if curID != a.currentID {
		a.currentID = curID
		a.generation++
		a.progress = Progress{}

		if cur == nil {
			a.out.Pause()
			a.playing = false
			return
		}
		if !cur.HasMedia() {
			// Malformed track data must not crash the player.
			zlog.Warn().Str("track_id", cur.ID).Str("title", cur.Title).
				Msg("player: track has no media reference, skipping load")
			a.out.Pause()
			a.playing = false
			a.ctrl.Pause()
			return
		}

		zlog.Debug().Str("track_id", cur.ID).Str("title", cur.Title).
			Msg("player: loading track")
		if err := a.out.Load(cur.MediaURL); err != nil {
			zlog.Error().Err(err).Str("track_id", cur.ID).
				Msg("player: failed to load track")
			// Clearing the identity lets the next play command retry the load.
			a.currentID = ""
			a.out.Pause()
			a.playing = false
			a.ctrl.Pause()
			return
		}
		a.playing = snap.IsPlaying
		if snap.IsPlaying {
			a.startLocked()
		}
		return
	}

	// Same track: only the play intent may have changed.
	if snap.IsPlaying != a.playing {
		a.playing = snap.IsPlaying
		if snap.IsPlaying {
			a.startLocked()
		} else {
			a.out.Pause()
		}
	}
}

// startLocked issues an async playback start and routes the settled future
// back into the event loop, tagged with the current generation.
func (a *Adapter) startLocked() {
	gen := a.generation
	errCh := a.out.Play()
	go func() {
		err := <-errCh
		select {
		case a.playResults <- playResult{generation: gen, err: err}:
		default:
			zlog.Debug().Msg("player: dropping play result, channel full")
		}
	}()
}

// handlePlayResult deals with a settled playback-start future. Futures
// issued for a previous track are stale and ignored; a rejection reconciles
// the desired play-state back to paused.
func (a *Adapter) handlePlayResult(res playResult) {
	a.mu.Lock()
	if res.generation != a.generation {
		a.mu.Unlock()
		zlog.Debug().Msg("player: ignoring stale play result")
		return
	}
	a.mu.Unlock()

	if res.err != nil {
		zlog.Error().Err(res.err).Msg("player: playback start rejected")
		a.ctrl.Pause()
		return
	}

	// The start succeeded, but the user may have paused while the future
	// was pending. Desired state wins.
	if !a.ctrl.IsPlaying() {
		a.out.Pause()
	}
}

// handleFinished reacts to the natural end of a track: repeat-one restarts
// the same track, anything else advances the queue. A single-track queue
// under repeat-all ends silent: Next wraps onto the same index, so the
// snapshot carries no track change for reconcile to act on.
func (a *Adapter) handleFinished() {
	snap := a.ctrl.Snapshot()
	if snap.Repeat == queue.RepeatOne && snap.Current() != nil {
		zlog.Debug().Msg("player: repeat-one, restarting track")
		a.out.Seek(0)
		a.mu.Lock()
		a.startLocked()
		a.mu.Unlock()
		return
	}
	a.ctrl.Next()
}

func (a *Adapter) handleProgress(pos time.Duration) {
	a.updateProgress(pos, a.out.Duration())
}

func (a *Adapter) updateProgress(pos, dur time.Duration) {
	percent := 0.0
	if dur > 0 {
		percent = float64(pos) / float64(dur) * 100
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
	}

	a.mu.Lock()
	a.progress = Progress{Position: pos, Duration: dur, Percent: percent}
	fn := a.onProgress
	p := a.progress
	a.mu.Unlock()

	if fn != nil {
		fn(p)
	}
}

// applyVolumeLocked reflects volume and mute onto the output. Mute maps to
// zero gain while the stored volume is preserved by the controller.
func (a *Adapter) applyVolumeLocked(snap queue.Snapshot) {
	v := snap.Volume
	if snap.Muted {
		v = 0
	}
	if a.volumeSet && a.volume == v {
		return
	}
	a.volume = v
	a.volumeSet = true
	a.out.SetVolume(v)
}
