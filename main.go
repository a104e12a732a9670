package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/gdamore/tcell/v2"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/term"

	"matrix-rain/internal/lock"
	"matrix-rain/internal/rain"
)

// lockHashEnv holds the bcrypt hash a locked session verifies against.
const lockHashEnv = "MATRIX_LOCK_HASH"

func main() {
	rootFlagSet := flag.NewFlagSet("matrix-rain", flag.ExitOnError)

	runFlagSet := flag.NewFlagSet("matrix-rain run", flag.ExitOnError)
	runLock := runFlagSet.Bool("lock", false, "Require the passphrase from $"+lockHashEnv+" to exit")

	idleFlagSet := flag.NewFlagSet("matrix-rain idle", flag.ExitOnError)
	idleTimeout := idleFlagSet.Int("timeout", defaultIdleTimeout, "Idle timeout in seconds before triggering the screensaver")
	idleOnce := idleFlagSet.Bool("once", false, "Trigger the screensaver immediately and exit")
	idleLock := idleFlagSet.Bool("lock", false, "Trigger in lock mode")

	runCmd := &ffcli.Command{
		Name:       "run",
		ShortUsage: "matrix-rain run [flags]",
		ShortHelp:  "Run the screensaver",
		FlagSet:    runFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			return execRun(*runLock)
		},
	}

	idleCmd := &ffcli.Command{
		Name:       "idle",
		ShortUsage: "matrix-rain idle [flags]",
		ShortHelp:  "Run idle watcher daemon",
		FlagSet:    idleFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			return execIdle(*idleTimeout, *idleOnce, *idleLock)
		},
	}

	hashCmd := &ffcli.Command{
		Name:       "hash",
		ShortUsage: "matrix-rain hash",
		ShortHelp:  "Generate a bcrypt hash for $" + lockHashEnv,
		FlagSet:    flag.NewFlagSet("matrix-rain hash", flag.ExitOnError),
		Exec: func(ctx context.Context, args []string) error {
			return execHash()
		},
	}

	rootCmd := &ffcli.Command{
		ShortUsage:  "matrix-rain [flags] <subcommand>",
		ShortHelp:   "A digital-rain terminal screensaver",
		LongHelp:    "Controls:\n  Any key   Exit screensaver\n  --lock    Exit requires the passphrase (Enter submits, Esc clears)",
		FlagSet:     rootFlagSet,
		Subcommands: []*ffcli.Command{runCmd, idleCmd, hashCmd},
		Exec: func(ctx context.Context, args []string) error {
			// Default behavior: run the screensaver.
			return execRun(false)
		},
	}

	if err := rootCmd.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// ============================================================================
// Screensaver (run) command
// ============================================================================

// hostDelay paces the host loop; the engine gates itself to its own tick
// interval, so polling faster only keeps input latency low.
const hostDelay = 10 * time.Millisecond

func execRun(lockMode bool) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal")
	}

	var lockHash string
	if lockMode {
		lockHash = os.Getenv(lockHashEnv)
		if lockHash == "" {
			return fmt.Errorf("%s is not set; generate one with: matrix-rain hash", lockHashEnv)
		}
		defer memguard.Purge()
	}

	s, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer s.Fini()

	s.Clear()
	s.HideCursor()

	width, height := s.Size()
	if width <= 0 || height <= 0 {
		return nil
	}

	// One terminal cell is one engine pixel: cell height 1, cell width the
	// widest palette glyph so double-width Katakana never overlap a neighbor
	// column.
	cellW := rain.WidestGlyph()
	engine, err := rain.New(rain.Config{
		Width:      width,
		Height:     height,
		CellWidth:  cellW,
		CellHeight: 1,
	})
	if err != nil {
		return fmt.Errorf("initializing rain: %w", err)
	}
	defer func() { engine.Close() }()

	surface := &cellSurface{screen: s}

	events := make(chan tcell.Event, 10)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	var entry *lock.SecureBuffer
	if lockMode {
		entry = lock.NewSecureBuffer()
		defer entry.Destroy()
	}

loop:
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !lockMode {
					break loop
				}
				if handleLockKey(entry, ev, lockHash) {
					break loop
				}
			case *tcell.EventResize:
				width, height = s.Size()
				if width <= 0 || height <= 0 {
					break loop
				}
				engine.Close()
				engine, err = rain.New(rain.Config{
					Width:      width,
					Height:     height,
					CellWidth:  cellW,
					CellHeight: 1,
				})
				if err != nil {
					return fmt.Errorf("reinitializing rain: %w", err)
				}
			}
		default:
		}

		engine.Update(time.Now())
		engine.Render(surface)
		s.Show()
		time.Sleep(hostDelay)
	}

	return nil
}

// handleLockKey feeds one key into the passphrase attempt. Reports true once
// the attempt verifies and the screensaver may exit.
func handleLockKey(entry *lock.SecureBuffer, ev *tcell.EventKey, hash string) bool {
	switch ev.Key() {
	case tcell.KeyEnter:
		if entry.Verify(hash) {
			return true
		}
		entry.Reset()
	case tcell.KeyEscape:
		entry.Reset()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		entry.Backspace()
	case tcell.KeyUp:
		entry.AppendString(lock.ArrowUpMarker)
	case tcell.KeyDown:
		entry.AppendString(lock.ArrowDownMarker)
	case tcell.KeyLeft:
		entry.AppendString(lock.ArrowLeftMarker)
	case tcell.KeyRight:
		entry.AppendString(lock.ArrowRightMarker)
	case tcell.KeyRune:
		entry.AppendRune(ev.Rune())
	}
	return false
}

// cellSurface adapts the tcell screen to the engine's pixel surface.
type cellSurface struct {
	screen tcell.Screen
}

func (cs *cellSurface) Fill(c color.RGBA) {
	cs.screen.Fill(' ', tcell.StyleDefault.Background(rgb(c)))
}

func (cs *cellSurface) SetGlyph(x, y int, g rune, c color.RGBA) {
	st := tcell.StyleDefault.Foreground(rgb(c)).Background(tcell.ColorBlack)
	cs.screen.SetContent(x, y, g, nil, st)
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// ============================================================================
// Idle watcher command
// ============================================================================

const (
	defaultIdleTimeout = 300
	pollInterval       = 5
)

func execIdle(timeout int, once, lockMode bool) error {
	// Find our own executable path to call "matrix-rain run"
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("finding executable path: %w", err)
	}

	if once {
		triggerScreensaver(context.Background(), exePath, lockMode)
		return nil
	}

	if os.Getenv("TMUX") == "" {
		return fmt.Errorf("not running inside tmux")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Matrix rain idle watcher started (timeout: %ds, poll: %ds)\n", timeout, pollInterval)

	ticker := time.NewTicker(time.Duration(pollInterval) * time.Second)
	defer ticker.Stop()

	// Track whether we're waiting for user activity after triggering.
	// This prevents immediate re-triggering when exiting the screensaver,
	// since tmux popup interactions don't update #{client_activity}.
	waitingForActivity := false

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Matrix rain idle watcher stopped")
			return nil
		case <-ticker.C:
			idleSeconds, err := getClientIdleTime(ctx)
			if err != nil {
				continue
			}

			if waitingForActivity {
				if idleSeconds < timeout {
					waitingForActivity = false
				}
			} else if idleSeconds >= timeout {
				triggerScreensaver(ctx, exePath, lockMode)
				waitingForActivity = true
			}
		}
	}
}

func getClientIdleTime(ctx context.Context) (int, error) {
	cmd := exec.CommandContext(ctx, "tmux", "display-message", "-p", "#{client_activity}")
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("get client activity: %w", err)
	}

	activityStr := strings.TrimSpace(string(out))
	if activityStr == "" {
		return 0, fmt.Errorf("empty activity timestamp")
	}

	activityTime, err := strconv.ParseInt(activityStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse activity timestamp: %w", err)
	}

	now := time.Now().Unix()
	idle := max(int(now-activityTime), 0)
	return idle, nil
}

func triggerScreensaver(ctx context.Context, exePath string, lockMode bool) {
	args := []string{exePath, "run"}
	if lockMode {
		args = append(args, "--lock")
	}
	cmdStr := strings.Join(args, " ")

	popupArgs := []string{
		"display-popup",
		"-E",
		"-w", "100%",
		"-h", "100%",
		cmdStr,
	}

	// Note: no CommandContext here because the popup is interactive and should
	// not be killed when the watcher receives a signal - the user should be
	// able to exit it naturally.
	cmd := exec.Command("tmux", popupArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Run()
}

// ============================================================================
// Hash command
// ============================================================================

func execHash() error {
	fd := int(os.Stdin.Fd())
	var pass []byte
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Passphrase: ")
		p, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		pass = p
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		pass = []byte(strings.TrimRight(line, "\r\n"))
	}
	if len(pass) == 0 {
		return errors.New("empty passphrase")
	}

	hash, err := lock.HashPassphrase(pass)
	if err != nil {
		return fmt.Errorf("hashing passphrase: %w", err)
	}
	fmt.Println(hash)
	return nil
}
