package pintos

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S5: tick-driven wakeup. Three threads sleep for different durations from
// tick 0; each becomes READY no later than the Tick call that reaches its
// deadline, and they wake in deadline order.
func TestSleepWakeOrder(t *testing.T) {
	k := newTestKernel(t)

	var mu sync.Mutex
	var order []string
	record := func(s string) { mu.Lock(); order = append(order, s); mu.Unlock() }

	deadlines := []struct {
		name     string
		deadline int64
	}{{"T10", 10}, {"T20", 20}, {"T30", 30}}
	for _, d := range deadlines {
		d := d
		_, err := k.Create(d.name, DefaultPriority, func(any) {
			k.SleepUntil(d.deadline)
			record(d.name)
		}, nil)
		require.NoError(t, err)
	}

	// All three created at boot's own priority: none runs until boot yields,
	// and once run they immediately sleep, handing control straight back.
	k.Yield()
	assert.Empty(t, order)

	k.Tick(5)
	k.Yield()
	assert.Empty(t, order)

	k.Tick(10)
	k.Yield()
	assert.Equal(t, []string{"T10"}, order)

	k.Tick(20)
	k.Yield()
	assert.Equal(t, []string{"T10", "T20"}, order)

	k.Tick(30)
	k.Yield()
	assert.Equal(t, []string{"T10", "T20", "T30"}, order)
}

// R3: sleeping for a duration that has already elapsed returns immediately
// without blocking.
func TestSleepUntilPastDeadlineNoBlock(t *testing.T) {
	k := newTestKernel(t)
	k.Tick(100)

	ran := false
	_, err := k.Create("instant", DefaultPriority, func(any) {
		k.SleepUntil(50) // already in the past relative to tick 100
		ran = true
	}, nil)
	require.NoError(t, err)

	k.Yield()
	assert.True(t, ran)
}

// P5: sleep_until never wakes a thread before its deadline tick.
func TestSleepUntilNeverWakesEarly(t *testing.T) {
	k := newTestKernel(t)

	woke := false
	_, err := k.Create("sleeper", DefaultPriority, func(any) {
		k.SleepUntil(10)
		woke = true
	}, nil)
	require.NoError(t, err)

	k.Yield()
	for tick := int64(1); tick < 10; tick++ {
		k.Tick(tick)
		k.Yield()
		assert.False(t, woke, "woke early at tick %d", tick)
	}
	k.Tick(10)
	k.Yield()
	assert.True(t, woke)
}
