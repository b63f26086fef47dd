package circuitbreaker

import (
	"fmt"
	"sync"
	"time"
)

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// Settings configure one breaker. FailureThreshold consecutive failures
// open it; after Cooldown one trial call is let through, and its outcome
// decides whether the breaker closes again or re-opens.
type Settings struct {
	Name             string
	FailureThreshold int
	Cooldown         time.Duration
}

// CircuitBreaker stops calls to a dependency that keeps failing, so a dead
// Gemini endpoint or Redis node fails fast instead of tying up requests.
type CircuitBreaker struct {
	settings Settings

	mu       sync.Mutex
	state    state
	failures int
	openedAt time.Time
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	return &CircuitBreaker{settings: settings}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == stateOpen {
		if time.Since(cb.openedAt) < cb.settings.Cooldown {
			cb.mu.Unlock()
			return fmt.Errorf("%s: circuit open", cb.settings.Name)
		}
		cb.state = stateHalfOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		if cb.state == stateHalfOpen || cb.failures >= cb.settings.FailureThreshold {
			cb.state = stateOpen
			cb.openedAt = time.Now()
		}
		return err
	}

	cb.state = stateClosed
	cb.failures = 0
	return nil
}
