package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterFixedWindow(t *testing.T) {
	base := time.Date(2026, 8, 26, 12, 0, 0, 100*int(time.Millisecond), time.UTC)
	l := NewLimiter().WithClock(func() time.Time { return base })
	q := QuotaConfig{Limit: 3, Window: time.Second}

	allowed, denied := 0, 0
	for i := 0; i < 5; i++ {
		res := l.Check("fundamental-api", q)
		if res.Allowed {
			allowed++
		} else {
			denied++
			assert.Greater(t, res.RetryAfter, time.Duration(0))
		}
	}
	assert.Equal(t, 3, allowed)
	assert.Equal(t, 2, denied)
}

func TestLimiterWindowReset(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 900*int(time.Millisecond), time.UTC)
	l := NewLimiter().WithClock(func() time.Time { return now })
	q := QuotaConfig{Limit: 1, Window: time.Second}

	require.True(t, l.Check("api", q).Allowed)
	require.False(t, l.Check("api", q).Allowed)

	// The boundary is wall-clock aligned: crossing the second resets the window.
	now = now.Add(200 * time.Millisecond)
	assert.True(t, l.Check("api", q).Allowed)
}

func TestLimiterRetryAfterIsTimeToReset(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 250*int(time.Millisecond), time.UTC)
	l := NewLimiter().WithClock(func() time.Time { return now })
	q := QuotaConfig{Limit: 1, Window: time.Second}

	require.True(t, l.Check("api", q).Allowed)
	res := l.Check("api", q)
	require.False(t, res.Allowed)
	assert.Equal(t, 750*time.Millisecond, res.RetryAfter)
}

func TestLimiterStatusIsPureRead(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	l := NewLimiter().WithClock(func() time.Time { return now })
	q := QuotaConfig{Limit: 5, Window: time.Minute}

	for i := 0; i < 2; i++ {
		l.Check("api", q)
	}
	st := l.Status("api", q)
	assert.Equal(t, 2, st.Used)
	assert.Equal(t, 3, st.Remaining)
	assert.Equal(t, now.Add(time.Minute), st.ResetAt)

	// Status must not consume quota.
	st2 := l.Status("api", q)
	assert.Equal(t, st, st2)
}

func TestLimiterPerAPIIsolation(t *testing.T) {
	l := NewLimiter()
	q := QuotaConfig{Limit: 1, Window: time.Minute}

	require.True(t, l.Check("a", q).Allowed)
	require.False(t, l.Check("a", q).Allowed)
	assert.True(t, l.Check("b", q).Allowed)

	l.Reset("a")
	assert.True(t, l.Check("a", q).Allowed)
}
