package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"TriSight/internal/domain/models"
)

// BreakerConfig tunes one upstream's circuit breaker.
type BreakerConfig struct {
	FailureThreshold uint32
	Cooldown         time.Duration
}

// Breaker guards one upstream API. It fails fast while the upstream is
// unhealthy: after FailureThreshold consecutive failures the circuit opens and
// calls are rejected without invoking the wrapped function until Cooldown
// elapses, at which point a single trial call is let through.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

func newBreaker(name string, cfg BreakerConfig, onChange func(name, state string)) *Breaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // one trial call in half-open
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	if onChange != nil {
		st.OnStateChange = func(name string, _, to gobreaker.State) {
			onChange(name, to.String())
		}
	}
	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker(st)}
}

// Execute runs fn under the breaker. While open it rejects immediately with an
// EXTERNAL_API_ERROR carrying reason=circuit_open.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	out, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			ae := models.NewAnalysisError(models.CodeExternalAPI, "",
				fmt.Sprintf("circuit breaker open for %s", b.name))
			return nil, ae.WithDetail("reason", "circuit_open")
		}
		return nil, err
	}
	return out, nil
}

// State returns the breaker state as "closed", "open" or "half-open".
func (b *Breaker) State() string { return b.cb.State().String() }

// Registry holds one breaker per upstream API name. It is process-wide and
// shared across concurrent requests; lookups and resets are mutex-guarded,
// the breakers themselves are internally synchronized.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	cfg      BreakerConfig
	onChange func(name, state string)
}

// NewRegistry creates a breaker registry with a shared per-upstream config.
func NewRegistry(cfg BreakerConfig) *Registry {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Registry{breakers: make(map[string]*Breaker), cfg: cfg}
}

// OnStateChange registers a callback invoked on every breaker transition.
func (r *Registry) OnStateChange(fn func(name, state string)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Get returns the breaker for apiName, creating it on first use.
func (r *Registry) Get(apiName string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[apiName]
	if !ok {
		b = newBreaker(apiName, r.cfg, r.onChange)
		r.breakers[apiName] = b
	}
	return b
}

// Reset administratively replaces the breaker for apiName with a fresh closed
// one. gobreaker has no public reset, so replacement is the reset.
func (r *Registry) Reset(apiName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.breakers[apiName]; ok {
		r.breakers[apiName] = newBreaker(apiName, r.cfg, r.onChange)
	}
}

// States snapshots every registered breaker's state.
func (r *Registry) States() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State()
	}
	return out
}
