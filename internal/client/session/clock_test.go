package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClock(lead time.Duration) (*Clock, *fakeTime, *atomic.Int32) {
	ft := newFakeTime()
	var fired atomic.Int32
	c := NewClock(ft, lead, func() { fired.Add(1) })
	return c, ft, &fired
}

func TestClock_FiresLeadBeforeExpiry(t *testing.T) {
	c, ft, fired := newTestClock(10 * time.Minute)

	delay := c.Schedule(ft.Now().Add(30 * time.Minute))
	assert.Equal(t, 20*time.Minute, delay)
	require.True(t, c.Armed())

	ft.Advance(19 * time.Minute)
	assert.Equal(t, int32(0), fired.Load())

	ft.Advance(time.Minute)
	assert.Equal(t, int32(1), fired.Load())
	assert.False(t, c.Armed())
}

func TestClock_InsideLeadWindowFiresImmediately(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn time.Duration
	}{
		{"inside lead window", 5 * time.Minute},
		{"exactly at lead", 10 * time.Minute},
		{"already expired", -time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ft, fired := newTestClock(10 * time.Minute)

			delay := c.Schedule(ft.Now().Add(tt.expiresIn))
			assert.Equal(t, time.Duration(0), delay)

			ft.Advance(0)
			assert.Equal(t, int32(1), fired.Load())
		})
	}
}

func TestClock_ScheduleReplacesPrevious(t *testing.T) {
	c, ft, fired := newTestClock(10 * time.Minute)

	c.Schedule(ft.Now().Add(30 * time.Minute))
	c.Schedule(ft.Now().Add(60 * time.Minute))
	assert.Equal(t, 1, ft.pending(), "two timers must never coexist")

	ft.Advance(25 * time.Minute)
	assert.Equal(t, int32(0), fired.Load())

	ft.Advance(25 * time.Minute)
	assert.Equal(t, int32(1), fired.Load())
}

func TestClock_CancelDisarms(t *testing.T) {
	c, ft, fired := newTestClock(10 * time.Minute)

	c.Schedule(ft.Now().Add(30 * time.Minute))
	c.Cancel()
	assert.False(t, c.Armed())

	ft.Advance(time.Hour)
	assert.Equal(t, int32(0), fired.Load())

	assert.NotPanics(t, c.Cancel)
}

func TestClock_StaleCallbackIsDropped(t *testing.T) {
	c, ft, fired := newTestClock(10 * time.Minute)

	c.Schedule(ft.Now().Add(30 * time.Minute))
	ft.mu.Lock()
	stale := ft.timers[0].f
	ft.mu.Unlock()

	// The timer already fired when Cancel ran and could not be stopped.
	c.Cancel()
	stale()
	assert.Equal(t, int32(0), fired.Load())

	c.Schedule(ft.Now().Add(30 * time.Minute))
	stale()
	assert.Equal(t, int32(0), fired.Load())
}
