package goSession

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/internal/events"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// Engine is the session lifecycle façade. Create it with [Builder.Build]; all
// methods are safe for concurrent use.
type Engine struct {
	config  Config
	store   session.Store
	signer  *jwt.Manager
	flows   flows.Deps
	reaper  *session.Reaper
	events  *events.Dispatcher
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time

	closed    atomic.Bool
	closeOnce sync.Once
}

// Close stops the reaper and flushes pending events. Subsequent calls are no-ops.
// After Close, Verify returns false and mutating calls return ErrEngineNotReady.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if e.reaper != nil {
			e.reaper.Stop()
		}
		e.events.Close()
	})
}

func (e *Engine) ready() bool {
	return e != nil && e.signer != nil && !e.closed.Load()
}

// PublicKey returns the PEM-encoded (PKIX) public key for offline verifiers.
func (e *Engine) PublicKey() []byte {
	if e == nil || e.signer == nil {
		return nil
	}
	return e.signer.PublicKeyPEM()
}

// SigningMethod returns the algorithm tokens are signed with.
func (e *Engine) SigningMethod() jwt.SigningMethod {
	if e == nil || e.signer == nil {
		return ""
	}
	return e.signer.Method()
}

// Config returns a copy of the effective configuration with key material removed.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	out := cloneConfig(e.config)
	out.JWT.PrivateKey = nil
	return out
}

// EventsDropped reports events discarded because the dispatcher buffer was full.
func (e *Engine) EventsDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.events.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// SessionCount returns the number of records held across all accounts, including
// expired ones the reaper has not yet removed.
func (e *Engine) SessionCount() int {
	if e == nil || e.store == nil {
		return 0
	}
	return e.store.Len()
}

// SweepNow runs one reaper pass immediately and returns the number of removed
// sessions.
func (e *Engine) SweepNow() int {
	if !e.ready() {
		return 0
	}
	return len(e.reaper.SweepOnce())
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n int) {
	if e == nil || e.metrics == nil || n <= 0 {
		return
	}
	e.metrics.Add(id, uint64(n))
}
