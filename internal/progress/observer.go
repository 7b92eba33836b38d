package progress

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

type Observer interface {
	Publish(Snapshot)
	Done(Snapshot)
}

type NoopObserver struct{}

func (NoopObserver) Publish(Snapshot) {}
func (NoopObserver) Done(Snapshot)    {}

type ObserverFunc func(Snapshot)

func (f ObserverFunc) Publish(s Snapshot) { f(s) }
func (ObserverFunc) Done(Snapshot)        {}

// ShouldShowProgress resolves --progress / --no-progress against the terminal.
func ShouldShowProgress(force, no bool) bool {
	if no {
		return false
	}
	if force {
		return true
	}
	return isTerminal(os.Stdout) && isTerminal(os.Stderr)
}

type ttyObserver struct {
	w  io.Writer
	mu sync.Mutex
}

// NewTTYObserver redraws a single status line in place.
func NewTTYObserver(w io.Writer) Observer {
	if w == nil {
		w = os.Stderr
	}
	return &ttyObserver{w: w}
}

func (o *ttyObserver) Publish(s Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintf(o.w, "\r\033[K%s", renderStatus(s))
}

func (o *ttyObserver) Done(Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprint(o.w, "\r\033[K")
}

type logObserver struct {
	log zerolog.Logger
}

// NewLogObserver reports progress as structured log events, for non-terminal stderr.
func NewLogObserver(log zerolog.Logger) Observer {
	return logObserver{log: log}
}

func (o logObserver) Publish(s Snapshot) {
	o.log.Info().
		Str("stage", string(s.Stage)).
		Int("done", s.Done).
		Int("total", s.Total).
		Int("pairs", s.Pairs).
		Int("unmatched", s.Unmatched).
		Float64("files_per_sec", round3(s.Rate)).
		Dur("eta", s.ETA).
		Msg("progress")
}

func (o logObserver) Done(s Snapshot) {
	o.log.Info().
		Int("files", s.Done).
		Int("pairs", s.Pairs).
		Int("unmatched", s.Unmatched).
		Dur("elapsed", s.Elapsed).
		Msg("scan finished")
}

// NewAutoObserver picks the in-place renderer for terminals and log events otherwise.
func NewAutoObserver(w io.Writer, log zerolog.Logger) Observer {
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		return NewTTYObserver(w)
	}
	return NewLogObserver(log)
}

func renderStatus(s Snapshot) string {
	rate := "--/s"
	eta := "--:--:--"
	if !s.Warmup {
		if s.Rate > 0 {
			rate = fmt.Sprintf("%.1f/s", s.Rate)
		}
		if s.ETA > 0 {
			eta = formatETA(s.ETA)
		}
	}
	return fmt.Sprintf("[%s] %3d%% %d/%d files %s ETA %s unmatched=%d",
		s.Stage, percent(s.Done, s.Total), s.Done, s.Total, rate, eta, s.Unmatched)
}

func formatETA(d time.Duration) string {
	secs := int(math.Round(d.Seconds()))
	if secs < 0 {
		secs = 0
	}
	h, m, sec := secs/3600, (secs%3600)/60, secs%60
	if h > 99 {
		h = 99
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

func percent(a, b int) int {
	if b <= 0 {
		if a <= 0 {
			return 0
		}
		return 100
	}
	if a <= 0 {
		return 0
	}
	if a >= b {
		return 100
	}
	return a * 100 / b
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
