package events

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Type names a lifecycle transition.
type Type string

const (
	TypeCreated     Type = "session.created"
	TypeEvicted     Type = "session.evicted"
	TypeInvalidated Type = "session.invalidated"
	TypeCascaded    Type = "session.cascaded"
	TypeExpired     Type = "session.expired"
	TypeCleared     Type = "session.cleared"
)

// Event is the lifecycle record published after a store mutation.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       Type      `json:"type"`
	TenantCode string    `json:"tenant_code"`
	AccountID  string    `json:"account_id"`
	SessionID  string    `json:"session_id,omitempty"`
	SourceID   string    `json:"source_id,omitempty"`
	Endpoint   string    `json:"endpoint,omitempty"`
	// IssuedAt lets revocation consumers compare against token iat.
	IssuedAt time.Time `json:"issued_at"`
	Reason   string    `json:"reason,omitempty"`
}

// Sink receives emitted events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a sink with a buffer of the given size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink writes one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(ctx, event)
		}
	}
}
