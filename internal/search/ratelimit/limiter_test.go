package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_RespectsWindow(t *testing.T) {
	l := New(Config{Requests: 3, Period: time.Minute, Burst: 0})
	fakeNow := time.Now()
	l.nowFn = func() time.Time { return fakeNow }

	for i := 0; i < 3; i++ {
		require.True(t, l.CanProceed("k"))
		l.RecordRequest("k")
	}
	assert.False(t, l.CanProceed("k"))

	// Advance past the window; the old timestamps should be cleaned.
	fakeNow = fakeNow.Add(time.Minute + time.Second)
	assert.True(t, l.CanProceed("k"))
}

func TestLimiter_BurstAllowance(t *testing.T) {
	l := New(Config{Requests: 2, Period: time.Minute, Burst: 1})
	fakeNow := time.Now()
	l.nowFn = func() time.Time { return fakeNow }

	for i := 0; i < 3; i++ {
		require.True(t, l.CanProceed("k"))
		l.RecordRequest("k")
	}
	assert.False(t, l.CanProceed("k"))
}

func TestLimiter_NeverExceedsRequestsPlusBurstInAnyWindow(t *testing.T) {
	l := New(Config{Requests: 5, Period: 100 * time.Millisecond, Burst: 2})
	fakeNow := time.Now()
	l.nowFn = func() time.Time { return fakeNow }

	allowed := 0
	for i := 0; i < 50; i++ {
		fakeNow = fakeNow.Add(5 * time.Millisecond)
		if l.CanProceed("k") {
			l.RecordRequest("k")
			allowed++
			assert.LessOrEqual(t, l.Count("k"), 7)
		}
	}
	assert.Greater(t, allowed, 0)
}

func TestLimiter_GetWaitTime(t *testing.T) {
	l := New(Config{Requests: 1, Period: time.Minute, Burst: 0})
	fakeNow := time.Now()
	l.nowFn = func() time.Time { return fakeNow }

	l.RecordRequest("k")
	wait := l.GetWaitTime("k")
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Minute)
}

func TestLimiter_SeparateKeysIndependent(t *testing.T) {
	l := New(Config{Requests: 1, Period: time.Minute, Burst: 0})
	l.RecordRequest("a")
	assert.False(t, l.CanProceed("a"))
	assert.True(t, l.CanProceed("b"))
}
