package resilience

import (
	"sync"
	"time"
)

// QuotaConfig is the fixed-window quota for one upstream API.
type QuotaConfig struct {
	Limit  int
	Window time.Duration
}

// CheckResult reports a single admission decision.
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// QuotaStatus is a pure read of the current window.
type QuotaStatus struct {
	APIName   string    `json:"api_name"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

type window struct {
	start time.Time
	used  int
}

// Limiter enforces fixed-window quotas per API name. Window boundaries are
// derived from wall-clock time (now truncated to the window size), so resets
// are deterministic and independent of per-caller state.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewLimiter creates an empty limiter.
func NewLimiter() *Limiter {
	return &Limiter{windows: make(map[string]*window), now: time.Now}
}

// WithClock overrides the clock, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check consumes one slot for apiName if the quota allows it. When denied,
// RetryAfter is the time remaining until the window resets.
func (l *Limiter) Check(apiName string, q QuotaConfig) CheckResult {
	now := l.now()
	start := now.Truncate(q.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[apiName]
	if !ok || !w.start.Equal(start) {
		w = &window{start: start}
		l.windows[apiName] = w
	}

	if w.used >= q.Limit {
		return CheckResult{RetryAfter: start.Add(q.Window).Sub(now)}
	}
	w.used++
	return CheckResult{Allowed: true}
}

// Status reads the current window without consuming a slot.
func (l *Limiter) Status(apiName string, q QuotaConfig) QuotaStatus {
	now := l.now()
	start := now.Truncate(q.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	used := 0
	if w, ok := l.windows[apiName]; ok && w.start.Equal(start) {
		used = w.used
	}
	remaining := q.Limit - used
	if remaining < 0 {
		remaining = 0
	}
	return QuotaStatus{
		APIName:   apiName,
		Used:      used,
		Remaining: remaining,
		ResetAt:   start.Add(q.Window),
	}
}

// Reset administratively clears the window for apiName.
func (l *Limiter) Reset(apiName string) {
	l.mu.Lock()
	delete(l.windows, apiName)
	l.mu.Unlock()
}
