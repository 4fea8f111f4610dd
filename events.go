package goSession

import (
	"io"

	"github.com/MrEthical07/goSession/internal/events"
)

// Event is a lifecycle record published after every store mutation.
type Event = events.Event

// EventType names a lifecycle transition.
type EventType = events.Type

// EventSink receives events from the engine's dispatcher goroutine.
type EventSink = events.Sink

// Lifecycle event types.
const (
	EventSessionCreated     = events.TypeCreated
	EventSessionEvicted     = events.TypeEvicted
	EventSessionInvalidated = events.TypeInvalidated
	EventSessionCascaded    = events.TypeCascaded
	EventSessionExpired     = events.TypeExpired
	EventSessionCleared     = events.TypeCleared
)

// NoOpSink discards events.
type NoOpSink = events.NoOpSink

// ChannelSink delivers events to a buffered channel.
type ChannelSink = events.ChannelSink

// JSONWriterSink writes events as JSON lines.
type JSONWriterSink = events.JSONWriterSink

// MultiSink fans events out to several sinks.
type MultiSink = events.MultiSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return events.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return events.NewJSONWriterSink(w)
}
