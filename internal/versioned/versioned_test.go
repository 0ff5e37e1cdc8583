package versioned

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_DiscardsOlderWrites(t *testing.T) {
	var c Clock
	value := ""

	first := c.Begin()
	second := c.Begin()

	// The later request answers first
	assert.True(t, c.Commit(second, func() { value = "second" }))
	// The earlier request's late response must not overwrite it
	assert.False(t, c.Commit(first, func() { value = "first" }))

	assert.Equal(t, "second", value)
	assert.Equal(t, second, c.Applied())
}

func TestClock_SameTicketAppliesOnce(t *testing.T) {
	var c Clock
	calls := 0

	ticket := c.Begin()
	assert.True(t, c.Commit(ticket, func() { calls++ }))
	assert.False(t, c.Commit(ticket, func() { calls++ }))
	assert.Equal(t, 1, calls)
}

func TestClock_WriteAlwaysNewest(t *testing.T) {
	var c Clock
	value := 0

	stale := c.Begin()
	c.Write(func() { value = 1 })
	assert.False(t, c.Commit(stale, func() { value = 2 }))
	assert.Equal(t, 1, value)
}
