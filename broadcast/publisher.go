package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "gosession:events"

const defaultPublishTimeout = 2 * time.Second

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	Channel string
	// Timeout bounds each PUBLISH round trip.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Publisher implements goSession.EventSink.
type Publisher struct {
	client  redis.UniversalClient
	channel string
	timeout time.Duration
	logger  *slog.Logger

	published atomic.Uint64
	failed    atomic.Uint64
}

// NewPublisher returns a Publisher writing to cfg.Channel through client.
func NewPublisher(client redis.UniversalClient, cfg PublisherConfig) *Publisher {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultPublishTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Publisher{
		client:  client,
		channel: cfg.Channel,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// Emit publishes event. Failures are logged and counted, never returned.
func (p *Publisher) Emit(ctx context.Context, event goSession.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.failed.Add(1)
		p.logger.Error("broadcast: encode event", "type", event.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.failed.Add(1)
		p.logger.Warn("broadcast: publish event",
			"channel", p.channel,
			"type", event.Type,
			"session_id", event.SessionID,
			"error", err,
		)
		return
	}
	p.published.Add(1)
}

// Published counts events delivered to Redis.
func (p *Publisher) Published() uint64 { return p.published.Load() }

// Failed counts events that could not be published.
func (p *Publisher) Failed() uint64 { return p.failed.Load() }
