// Package feed defines the events the finality gadget emits for off-chain
// observers and relayers, and the notifier interface used to reach the feed
// they are sent on.
package feed

import (
	"github.com/ethereum/go-ethereum/event"
)

// EventType is the type that defines the type of event.
type EventType int

// Event is the event that is sent with gadget feed updates.
type Event struct {
	// Type is the type of event.
	Type EventType
	// Data is event-specific data.
	Data interface{}
}

// Notifier interface defines the methods of the service that provides event
// updates to consumers.
type Notifier interface {
	EventFeed() *event.Feed
}

// Send publishes an event on the notifier's feed. A nil notifier drops the
// event, which lets components run without observers in tests.
func Send(n Notifier, typ EventType, data interface{}) {
	if n == nil || n.EventFeed() == nil {
		return
	}
	n.EventFeed().Send(&Event{Type: typ, Data: data})
}
