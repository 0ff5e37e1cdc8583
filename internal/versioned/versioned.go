// Package versioned orders writes to shared client state by the time they
// were started rather than the time they completed.
package versioned

import "sync"

// Ticket is the version stamp handed out before a write is prepared
type Ticket uint64

// Clock issues tickets and remembers the newest applied one
type Clock struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// Begin issues a new ticket. Take it before starting the request whose
// response will be written.
func (c *Clock) Begin() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.issued++
	return Ticket(c.issued)
}

// Commit runs apply if t is newer than the last applied ticket.
// Stale writes are dropped and reported as false.
func (c *Clock) Commit(t Ticket, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if uint64(t) <= c.applied {
		return false
	}
	c.applied = uint64(t)
	apply()
	return true
}

// Write is Begin followed immediately by Commit
func (c *Clock) Write(apply func()) {
	c.Commit(c.Begin(), apply)
}

// Applied returns the ticket of the last applied write
func (c *Clock) Applied() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Ticket(c.applied)
}
