// Package main provides the player entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/musila/player/internal/app/player"
	"github.com/musila/player/internal/app/queue"
	"github.com/musila/player/internal/infra/audio"
	"github.com/musila/player/internal/infra/config"
	"github.com/musila/player/internal/infra/library"
	"github.com/musila/player/internal/infra/logger"
	"github.com/musila/player/internal/infra/store"
)

var (
	app        = kingpin.New("musila-player", "Musila playback client")
	configPath = app.Flag("config", "Path to config file").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	scanCmd = app.Command("scan", "Scan the library and exit")
)

func init() {
	// start command (default)
	app.Command("start", "Start the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Output: cfg.Logging.Output,
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if command == scanCmd.FullCommand() {
		if err := runScan(cfg); err != nil {
			zlog.Error().Msgf("Scan error: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// runScan lists the library tracks and exits.
func runScan(cfg *config.Config) error {
	if cfg.Library.Path == "" {
		return fmt.Errorf("no library path configured (set library.path or MUSILA_LIBRARY_PATH)")
	}

	tracks, err := library.NewScanner(cfg.Library.Extensions).Scan(cfg.Library.Path)
	if err != nil {
		return err
	}

	for i, t := range tracks {
		line := t.Title
		if artists := t.ArtistLine(); artists != "" {
			line += " — " + artists
		}
		fmt.Printf("%3d. %s\n", i+1, line)
	}
	fmt.Printf("%d tracks\n", len(tracks))
	return nil
}

// run wires the controller, the audio output, and the surface adapter, and
// drives them from a stdin transport loop.
func run(cfg *config.Config) error {
	st, err := store.New(cfg.Player.StateFile)
	if err != nil {
		return fmt.Errorf("failed to create state store: %w", err)
	}
	zlog.Debug().Str("path", st.Path()).Msg("using state file")

	ctrl := queue.NewController(queue.Config{
		Store:   st,
		Volume:  cfg.Player.Volume,
		Shuffle: cfg.Player.Shuffle,
		Repeat:  queue.ParseRepeatMode(cfg.Player.Repeat),
	})
	ctrl.Restore()

	// Seed an empty queue from the library, if one is configured.
	if ctrl.Len() == 0 && cfg.Library.Path != "" {
		tracks, err := library.NewScanner(cfg.Library.Extensions).Scan(cfg.Library.Path)
		if err != nil {
			return err
		}
		ctrl.SetQueue(tracks, 0)
	}

	var settings audio.Settings
	if err := cfg.Output.DecodeSettings(&settings); err != nil {
		return err
	}
	out := audio.NewSpeaker(&settings)

	adapter := player.New(ctrl, out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		adapter.Run(ctx)
		close(done)
	}()

	zlog.Info().Int("tracks", ctrl.Len()).Msg("player ready, type 'help' for commands")
	repl(ctx, stop, ctrl, adapter)

	<-done
	return nil
}

// repl reads transport commands from stdin until EOF, "quit", or ctx
// cancellation.
func repl(ctx context.Context, stop context.CancelFunc, ctrl *queue.Controller, adapter *player.Adapter) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				stop()
				return
			}
			if !dispatch(strings.Fields(line), ctrl, adapter) {
				stop()
				return
			}
		}
	}
}

// dispatch executes one transport command. Returns false to quit.
func dispatch(args []string, ctrl *queue.Controller, adapter *player.Adapter) bool {
	if len(args) == 0 {
		return true
	}

	switch args[0] {
	case "play":
		ctrl.Play()
	case "pause":
		ctrl.Pause()
	case "toggle", "p":
		ctrl.TogglePlay()
	case "next", "n":
		ctrl.Next()
	case "prev", "b":
		ctrl.Prev()
	case "shuffle", "s":
		ctrl.ToggleShuffle()
		fmt.Printf("shuffle: %v\n", ctrl.Snapshot().Shuffle)
	case "repeat", "r":
		ctrl.CycleRepeat()
		fmt.Printf("repeat: %s\n", ctrl.Snapshot().Repeat)
	case "vol":
		if len(args) < 2 {
			fmt.Printf("volume: %.2f\n", ctrl.Snapshot().Volume)
			return true
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			fmt.Println("usage: vol <0..1>")
			return true
		}
		ctrl.SetVolume(v)
	case "mute", "m":
		ctrl.ToggleMute()
	case "seek":
		if len(args) < 2 {
			fmt.Println("usage: seek <percent>")
			return true
		}
		pct, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			fmt.Println("usage: seek <percent>")
			return true
		}
		adapter.SeekPercent(pct)
	case "goto":
		if len(args) < 2 {
			fmt.Println("usage: goto <track number>")
			return true
		}
		num, err := strconv.Atoi(args[1])
		snap := ctrl.Snapshot()
		if err != nil || num < 1 || num > len(snap.Tracks) {
			fmt.Println("usage: goto <track number>")
			return true
		}
		ctrl.PlayTrack(snap.Tracks[num-1], nil)
	case "status", "st":
		printStatus(ctrl.Snapshot(), adapter.LastProgress())
	case "list", "ls":
		printQueue(ctrl.Snapshot())
	case "help", "h":
		printHelp()
	case "quit", "q", "exit":
		return false
	default:
		fmt.Printf("unknown command %q, type 'help'\n", args[0])
	}
	return true
}

func printStatus(snap queue.Snapshot, prog player.Progress) {
	cur := snap.Current()
	if cur == nil {
		fmt.Println("nothing selected")
		return
	}

	state := "paused"
	if snap.IsPlaying {
		state = "playing"
	}
	line := cur.Title
	if artists := cur.ArtistLine(); artists != "" {
		line += " — " + artists
	}
	fmt.Printf("[%s] %s\n", state, line)
	fmt.Printf("%s %s / %s  vol %.2f%s  shuffle %v  repeat %s\n",
		renderBar(prog.Percent, 30),
		formatTime(prog.Position), formatTime(prog.Duration),
		snap.Volume, muteSuffix(snap.Muted), snap.Shuffle, snap.Repeat)
}

func printQueue(snap queue.Snapshot) {
	if len(snap.Tracks) == 0 {
		fmt.Println("queue is empty")
		return
	}
	for i, t := range snap.Tracks {
		marker := "  "
		if i == snap.CurrentIndex {
			marker = "> "
		}
		fmt.Printf("%s%3d. %s\n", marker, i+1, t.Title)
	}
}

func printHelp() {
	fmt.Println(`commands:
  play / pause / toggle (p)   control playback
  next (n) / prev (b)         move through the queue
  goto <n>                    play track number n
  shuffle (s) / repeat (r)    toggle shuffle, cycle repeat mode
  vol [0..1] / mute (m)       volume control
  seek <percent>              scrub within the track
  status (st) / list (ls)     show state
  quit (q)                    exit`)
}

// renderBar draws a textual progress-bar fill for the given percent.
func renderBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

func formatTime(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func muteSuffix(muted bool) string {
	if muted {
		return " (muted)"
	}
	return ""
}
