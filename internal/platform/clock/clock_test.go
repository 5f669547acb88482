package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)

	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(5*time.Second, func() { fired = append(fired, "late") })

	c.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, start.Add(3*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())
}

func TestManualStop(t *testing.T) {
	t.Parallel()

	c := NewManual(time.Now())
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, called)
	assert.Equal(t, 0, c.Pending())
}

func TestManualChainedCallbacks(t *testing.T) {
	t.Parallel()

	c := NewManual(time.Now())
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3 * time.Second)
	assert.Equal(t, 3, ticks)

	c.Advance(500 * time.Millisecond)
	assert.Equal(t, 3, ticks)
}

func TestRealAfterFunc(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}
