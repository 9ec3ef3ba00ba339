package client

import "sync"

// EventType names a cache change.
type EventType string

const (
	// EventCreated means a new relationship entered the cache.
	EventCreated EventType = "created"
	// EventUpdated means a cached record was replaced by the server's copy.
	EventUpdated EventType = "updated"
	// EventRemoved means a record left the cache (declined or deleted).
	EventRemoved EventType = "removed"
	// EventRefreshed means the whole list was refetched.
	EventRefreshed EventType = "refreshed"
)

// Event describes a single cache change.
type Event struct {
	Type         EventType
	Relationship Relationship
}

// watcherHub fans cache events out to subscribers.
type watcherHub struct {
	mu       sync.RWMutex
	watchers map[chan Event]bool
}

// Subscribe returns a channel that receives every cache change until
// Unsubscribe is called. Slow subscribers miss events rather than block
// operations.
func (c *Client) Subscribe() chan Event {
	ch := make(chan Event, 16)

	c.watchers.mu.Lock()
	defer c.watchers.mu.Unlock()

	if c.watchers.watchers == nil {
		c.watchers.watchers = make(map[chan Event]bool)
	}
	c.watchers.watchers[ch] = true
	return ch
}

// Unsubscribe removes the channel and closes it.
func (c *Client) Unsubscribe(ch chan Event) {
	c.watchers.mu.Lock()
	defer c.watchers.mu.Unlock()

	if _, ok := c.watchers.watchers[ch]; ok {
		delete(c.watchers.watchers, ch)
		close(ch)
	}
}

func (h *watcherHub) broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.watchers {
		// Use a non-blocking send so a full subscriber cannot stall an operation.
		select {
		case ch <- event:
		default:
		}
	}
}
