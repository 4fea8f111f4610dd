package session

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultReapInterval is the sweep period used when none is configured.
const DefaultReapInterval = 5 * time.Second

// Sweeper is the part of a [Store] the reaper needs.
type Sweeper interface {
	SweepExpired(now time.Time) ([]Record, error)
}

// ReaperConfig configures a [Reaper].
type ReaperConfig struct {
	Interval time.Duration
	Now      func() time.Time
	// OnSweep receives the records removed by a sweep. It is not called for
	// empty sweeps.
	OnSweep func([]Record)
	// OnError receives a sweep failure after it has been logged.
	OnError func(error)
	Logger  *slog.Logger
}

// Reaper periodically removes expired records from a store.
type Reaper struct {
	store    Sweeper
	cfg      ReaperConfig
	done     chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
	stopOnce sync.Once
}

// NewReaper builds a stopped reaper over store.
func NewReaper(store Sweeper, cfg ReaperConfig) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReapInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Reaper{
		store: store,
		cfg:   cfg,
		done:  make(chan struct{}),
	}
}

// Start launches the sweep loop. Calling Start more than once has no effect.
func (r *Reaper) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	r.wg.Add(1)
	go r.run()
}

func (r *Reaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.SweepOnce()
		case <-r.done:
			return
		}
	}
}

// SweepOnce runs a single sweep synchronously and returns the removed records.
func (r *Reaper) SweepOnce() []Record {
	removed, err := r.store.SweepExpired(r.cfg.Now())
	if err != nil {
		r.cfg.Logger.Warn("gosession: reaper sweep failed", "error", err, "removed", len(removed))
		if r.cfg.OnError != nil {
			r.cfg.OnError(err)
		}
	}
	if len(removed) > 0 {
		r.cfg.Logger.Debug("gosession: reaper removed expired sessions", "count", len(removed))
		if r.cfg.OnSweep != nil {
			r.cfg.OnSweep(removed)
		}
	}
	return removed
}

// Stop ends the loop and waits for an in-flight sweep to finish. It is safe to
// call more than once and on a reaper that was never started.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}
