package goSession

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal/events"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	"github.com/google/uuid"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config Config
	store  session.Store
	sink   EventSink
	logger *slog.Logger
	now    func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore swaps the in-memory record store for another [session.Store].
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithEventSink sets the destination of lifecycle events and enables delivery.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.sink = sink
	if sink != nil {
		b.config.Events.Enabled = true
	}
	return b
}

// WithLogger injects a logger. Without one, a logger is built from Config.Logging.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source used for issuance, liveness and sweeps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled overrides Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms overrides Config.Metrics.EnableLatencyHistograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, loads or generates the keypair and starts
// the reaper. Every failure wraps ErrEngineMisconfigured.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, fmt.Errorf("%w: builder already used", ErrEngineMisconfigured)
	}

	cfg := cloneConfig(b.config)
	cfg.JWT.SigningMethod = strings.ToLower(cfg.JWT.SigningMethod)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineMisconfigured, err)
	}
	if err := cfg.resolveKeys(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineMisconfigured, err)
	}

	logger := b.logger
	if logger == nil {
		logger = NewLogger(cfg.Logging)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	method := jwt.SigningMethod(cfg.JWT.SigningMethod)
	if len(cfg.JWT.PrivateKey) == 0 {
		if len(cfg.JWT.PublicKey) > 0 {
			return nil, fmt.Errorf("%w: public key supplied without private key", ErrEngineMisconfigured)
		}
		priv, pub, err := jwt.GenerateKeyPair(method, cfg.JWT.RSAKeyBits)
		if err != nil {
			return nil, fmt.Errorf("%w: generate keypair: %v", ErrEngineMisconfigured, err)
		}
		cfg.JWT.PrivateKey, cfg.JWT.PublicKey = priv, pub
		logger.Warn("gosession: generated ephemeral signing keypair", "method", cfg.JWT.SigningMethod)
	}

	signer, err := jwt.NewManager(jwt.Config{
		SigningMethod: method,
		PrivateKey:    cfg.JWT.PrivateKey,
		PublicKey:     cfg.JWT.PublicKey,
		KeyID:         cfg.JWT.KeyID,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		MaxLifetime:   cfg.JWT.MaxLifetime,
		Now:           now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineMisconfigured, err)
	}
	if !signer.CanSign() {
		return nil, fmt.Errorf("%w: %v", ErrEngineMisconfigured, errors.New("signer has no private key"))
	}

	store := b.store
	if store == nil {
		store = session.NewMemoryStore()
	}

	e := &Engine{
		config:  cfg,
		store:   store,
		signer:  signer,
		flows:   flows.NewDeps(store, signer, now, uuid.NewString),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		now:     now,
	}
	e.events = events.NewDispatcher(events.Config{
		Enabled:    cfg.Events.Enabled,
		BufferSize: cfg.Events.BufferSize,
		DropIfFull: cfg.Events.DropIfFull,
	}, b.sink)
	e.reaper = session.NewReaper(store, session.ReaperConfig{
		Interval: cfg.Session.ReapInterval,
		Now:      now,
		OnSweep:  e.onSweep,
		OnError:  e.onSweepError,
		Logger:   logger,
	})
	e.reaper.Start()

	b.built = true
	return e, nil
}
