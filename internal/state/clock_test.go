package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_TickIsMonotonic(t *testing.T) {
	c := NewClockFor("site-a")
	assert.Equal(t, Stamp{Lamport: 1, Site: "site-a"}, c.Tick())
	assert.Equal(t, Stamp{Lamport: 2, Site: "site-a"}, c.Tick())
	assert.Equal(t, uint64(2), c.Current())
}

func TestClock_ObserveOnlyMovesForward(t *testing.T) {
	c := NewClockFor("a")
	c.Observe(10)
	assert.Equal(t, uint64(10), c.Current())
	c.Observe(3)
	assert.Equal(t, uint64(10), c.Current())
	assert.Equal(t, uint64(11), c.Tick().Lamport)
}

func TestClock_RandomSites(t *testing.T) {
	a, b := NewClock(), NewClock()
	assert.NotEmpty(t, a.Site())
	assert.NotEqual(t, a.Site(), b.Site())
}

func TestClock_ConcurrentTicksAreUnique(t *testing.T) {
	c := NewClockFor("a")
	const goroutines, calls = 20, 50

	var wg sync.WaitGroup
	out := make(chan uint64, goroutines*calls)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				out <- c.Tick().Lamport
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[uint64]bool)
	for v := range out {
		assert.False(t, seen[v], "lamport %d issued twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, goroutines*calls)
}

func TestStamp_After(t *testing.T) {
	assert.True(t, Stamp{Lamport: 2, Site: "a"}.After(Stamp{Lamport: 1, Site: "z"}))
	assert.True(t, Stamp{Lamport: 1, Site: "b"}.After(Stamp{Lamport: 1, Site: "a"}))
	assert.False(t, Stamp{Lamport: 1, Site: "a"}.After(Stamp{Lamport: 1, Site: "a"}))
	assert.True(t, Stamp{}.IsZero())
}
