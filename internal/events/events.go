package events

import (
	"context"

	"github.com/rzbill/eventfeed/pkg/id"
)

// Event topic constants
const (
	TopicEventAdded    = "eventfeed.event.added"
	TopicEventsEvicted = "eventfeed.events.evicted"
)

// Event types

// EventAdded is emitted once per successful append.
type EventAdded struct {
	ID         id.ID  `json:"id"`
	Seq        uint64 `json:"seq"`
	Payload    []byte `json:"payload"`
	InsertedAt uint64 `json:"inserted_at"`
}

// EventsEvicted is emitted after a tick removed at least one record.
type EventsEvicted struct {
	ID    id.ID  `json:"id"`
	Count int    `json:"count"`
	Now   uint64 `json:"now"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
