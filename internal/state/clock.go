package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Stamp orders writes to the same key: higher lamport wins, ties are broken by
// site id so that every replica picks the same winner.
type Stamp struct {
	Lamport uint64 `json:"lamport"`
	Site    string `json:"site"`
}

// After reports whether s wins over o.
func (s Stamp) After(o Stamp) bool {
	if s.Lamport != o.Lamport {
		return s.Lamport > o.Lamport
	}
	return s.Site > o.Site
}

// IsZero reports whether the stamp was never assigned.
func (s Stamp) IsZero() bool {
	return s.Lamport == 0 && s.Site == ""
}

// Clock is a lamport clock bound to one site.
type Clock struct {
	site    string
	lamport atomic.Uint64
}

// NewClock creates a clock with a fresh random site id.
func NewClock() *Clock {
	return NewClockFor(uuid.NewString())
}

// NewClockFor creates a clock for a known site id.
func NewClockFor(site string) *Clock {
	return &Clock{site: site}
}

func (c *Clock) Site() string {
	return c.site
}

// Tick advances the clock and returns the stamp for a new local write.
func (c *Clock) Tick() Stamp {
	return Stamp{Lamport: c.lamport.Add(1), Site: c.site}
}

// Observe moves the clock forward past a remote timestamp.
func (c *Clock) Observe(lamport uint64) {
	for {
		cur := c.lamport.Load()
		if lamport <= cur {
			return
		}
		if c.lamport.CompareAndSwap(cur, lamport) {
			return
		}
	}
}

// Current returns the last issued or observed lamport value.
func (c *Clock) Current() uint64 {
	return c.lamport.Load()
}
