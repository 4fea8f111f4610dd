package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/verifier"
	"github.com/redis/go-redis/v9"
)

const defaultPruneInterval = time.Minute

// SubscriberConfig configures a Subscriber.
type SubscriberConfig struct {
	Channel       string
	PruneInterval time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

// Subscriber feeds a denylist from the event channel.
type Subscriber struct {
	client   redis.UniversalClient
	denylist *verifier.Denylist
	cfg      SubscriberConfig

	ready     chan struct{}
	readyOnce sync.Once

	applied atomic.Uint64
	skipped atomic.Uint64
}

// NewSubscriber returns a Subscriber applying events from client to denylist.
func NewSubscriber(client redis.UniversalClient, denylist *verifier.Denylist, cfg SubscriberConfig) *Subscriber {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = defaultPruneInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Subscriber{
		client:   client,
		denylist: denylist,
		cfg:      cfg,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the subscription is confirmed by the server.
func (s *Subscriber) Ready() <-chan struct{} {
	return s.ready
}

// Run subscribes and applies events until ctx is done or the connection is lost.
// It returns nil when ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.cfg.Channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("broadcast: subscribe %s: %w", s.cfg.Channel, err)
	}
	s.readyOnce.Do(func() { close(s.ready) })
	s.cfg.Logger.Debug("broadcast: subscribed", "channel", s.cfg.Channel)

	messages := pubsub.Channel()
	ticker := time.NewTicker(s.cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("broadcast: subscription closed")
			}
			s.handle(msg.Payload)
		case <-ticker.C:
			if n := s.denylist.Prune(s.cfg.Now()); n > 0 {
				s.cfg.Logger.Debug("broadcast: pruned denylist", "removed", n)
			}
		}
	}
}

func (s *Subscriber) handle(payload string) {
	var event goSession.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		s.skipped.Add(1)
		s.cfg.Logger.Warn("broadcast: decode event", "error", err)
		return
	}
	if s.Apply(event) {
		s.applied.Add(1)
	} else {
		s.skipped.Add(1)
	}
}

// Apply records the revocation carried by event and reports whether it had one.
func (s *Subscriber) Apply(event goSession.Event) bool {
	if event.TenantCode == "" || event.AccountID == "" {
		return false
	}

	switch event.Type {
	case goSession.EventSessionInvalidated,
		goSession.EventSessionCascaded,
		goSession.EventSessionEvicted,
		goSession.EventSessionExpired:
		if event.SessionID == "" {
			return false
		}
		s.denylist.Revoke(event.TenantCode, event.AccountID, event.SessionID, event.Timestamp)
		return true
	case goSession.EventSessionCleared:
		s.denylist.RevokeAccount(event.TenantCode, event.AccountID, event.Timestamp)
		return true
	default:
		return false
	}
}

// Applied counts events that changed the denylist.
func (s *Subscriber) Applied() uint64 { return s.applied.Load() }

// Skipped counts events that were malformed or carried no revocation.
func (s *Subscriber) Skipped() uint64 { return s.skipped.Load() }
