// Package console keeps the operator console: a short scrollback of status
// lines that is streamed to connected dashboards.
package console

import (
	"sync"
)

// DefaultMaxLines is the scrollback kept when no limit is configured.
const DefaultMaxLines = 21

// BootLines seed a fresh console.
var BootLines = []string{
	"SYSTEM: RoboCyber Control Station v2.1.0",
	"SYSTEM: Initializing neural network interface...",
	"SYSTEM: Awaiting robot connection...",
}

// Console is a bounded, concurrency-safe log of console lines.
type Console struct {
	mu          sync.RWMutex
	maxLines    int
	lines       []string
	subscribers map[uint64]chan string
	nextID      uint64
}

// New creates a console holding at most maxLines lines, seeded with seed.
func New(maxLines int, seed ...string) *Console {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	c := &Console{
		maxLines:    maxLines,
		subscribers: make(map[uint64]chan string),
	}
	for _, line := range seed {
		c.appendLocked(line)
	}
	return c
}

// Append adds a line and fans it out to subscribers. It has the shape of
// teleop.EventSink so a Console can be handed straight to the bridge client.
func (c *Console) Append(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.appendLocked(line)
	for _, ch := range c.subscribers {
		select {
		case ch <- line:
		default:
			// slow subscriber, drop the line
		}
	}
}

// AppendUser records a line typed by the operator.
func (c *Console) AppendUser(message string) {
	c.Append("USER: " + message)
}

func (c *Console) appendLocked(line string) {
	c.lines = append(c.lines, line)
	if over := len(c.lines) - c.maxLines; over > 0 {
		c.lines = append(c.lines[:0:0], c.lines[over:]...)
	}
}

// Lines returns a copy of the scrollback, oldest first.
func (c *Console) Lines() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Subscribe returns a channel receiving every line appended from now on and
// a function that ends the subscription. Lines are dropped if the buffer fills.
func (c *Console) Subscribe(buffer int) (<-chan string, func()) {
	if buffer <= 0 {
		buffer = c.maxLines
	}
	ch := make(chan string, buffer)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (c *Console) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers)
}
