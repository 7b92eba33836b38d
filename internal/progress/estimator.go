package progress

import (
	"math"
	"sync"
	"time"
)

type Stage string

const (
	StageWalk Stage = "walk"
	StageScan Stage = "scan"
)

// Snapshot is a point-in-time view of a directory scan.
type Snapshot struct {
	Stage     Stage         `json:"stage"`
	Total     int           `json:"total"`
	Done      int           `json:"done"`
	Remaining int           `json:"remaining"`
	Pairs     int           `json:"pairs"`
	Unmatched int           `json:"unmatched"`
	Rate      float64       `json:"files_per_sec"`
	ETA       time.Duration `json:"eta"`
	Warmup    bool          `json:"warmup"`
	Elapsed   time.Duration `json:"elapsed"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type Config struct {
	Alpha          float64
	WindowSize     int
	WarmupFiles    int
	NotifyInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Alpha:          0.2,
		WindowSize:     32,
		WarmupFiles:    8,
		NotifyInterval: 200 * time.Millisecond,
	}
}

// Estimator counts scanned files and derives a smoothed rate. It is safe for
// concurrent use by scan workers.
type Estimator struct {
	mu         sync.Mutex
	cfg        Config
	start      time.Time
	last       time.Time
	lastNotify time.Time
	stage      Stage
	total      int
	done       int
	pairs      int
	unmatched  int
	ema        float64
	rates      *window
}

func NewEstimator(total int, cfg Config) *Estimator {
	base := DefaultConfig()
	if cfg.Alpha > 0 && cfg.Alpha <= 1 {
		base.Alpha = cfg.Alpha
	}
	if cfg.WindowSize > 0 {
		base.WindowSize = cfg.WindowSize
	}
	if cfg.WarmupFiles > 0 {
		base.WarmupFiles = cfg.WarmupFiles
	}
	if cfg.NotifyInterval > 0 {
		base.NotifyInterval = cfg.NotifyInterval
	}
	now := time.Now()
	return &Estimator{
		cfg:   base,
		start: now,
		last:  now,
		stage: StageWalk,
		total: total,
		rates: newWindow(base.WindowSize),
	}
}

// Begin switches to the scan stage once the file list is known.
func (e *Estimator) Begin(total int) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	e.stage = StageScan
	e.total = total
	e.last = now
	e.lastNotify = now
	return e.snapshotLocked(now)
}

// Advance records one finished file. notify reports whether observers should
// be told, which is rate limited by Config.NotifyInterval except for the last file.
func (e *Estimator) Advance(pairs, unmatched int) (snap Snapshot, notify bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	if now.Before(e.last) {
		now = e.last
	}
	dt := now.Sub(e.last).Seconds()
	if dt <= 0 {
		dt = 1e-6
	}
	e.done++
	e.pairs += pairs
	e.unmatched += unmatched

	instant := 1 / dt
	if math.IsNaN(instant) || math.IsInf(instant, 0) {
		instant = 0
	}
	if e.ema == 0 {
		e.ema = instant
	} else {
		e.ema = e.cfg.Alpha*instant + (1-e.cfg.Alpha)*e.ema
	}
	e.rates.Add(instant)
	e.last = now

	snap = e.snapshotLocked(now)
	notify = snap.Remaining == 0 || now.Sub(e.lastNotify) >= e.cfg.NotifyInterval
	if notify {
		e.lastNotify = now
	}
	return snap, notify
}

func (e *Estimator) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(time.Now())
}

func (e *Estimator) snapshotLocked(now time.Time) Snapshot {
	remaining := e.total - e.done
	if remaining < 0 {
		remaining = 0
	}
	warmup := e.done < e.cfg.WarmupFiles
	rate := e.rates.Median()
	if rate <= 0 {
		rate = e.ema
	}
	var eta time.Duration
	if !warmup && remaining > 0 && rate > 0 {
		eta = durationFor(float64(remaining) / rate)
	}
	return Snapshot{
		Stage:     e.stage,
		Total:     e.total,
		Done:      e.done,
		Remaining: remaining,
		Pairs:     e.pairs,
		Unmatched: e.unmatched,
		Rate:      e.ema,
		ETA:       eta,
		Warmup:    warmup,
		Elapsed:   now.Sub(e.start),
		UpdatedAt: now,
	}
}

func durationFor(seconds float64) time.Duration {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	if seconds > float64(math.MaxInt64/int64(time.Second)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds * float64(time.Second))
}
