package reddit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Endpoint family failing, calls rejected
	stateHalfOpen                     // Probing whether the endpoint recovered
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// circuitBreaker tracks consecutive failures per endpoint family ("listing",
// "comments", "user", "write"...) so a failing family does not block the others.
type circuitBreaker struct {
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	logger           *slog.Logger
	now              func() time.Time
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

func newCircuitBreaker(threshold int, openDuration time.Duration, logger *slog.Logger) *circuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if openDuration <= 0 {
		openDuration = 30 * time.Second
	}
	return &circuitBreaker{
		failureThreshold: threshold,
		openDuration:     openDuration,
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
		logger:           logger,
		now:              time.Now,
	}
}

// canAttempt reports whether a call to the family may proceed.
// An open circuit moves to half-open once openDuration has elapsed.
func (cb *circuitBreaker) canAttempt(family string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state[family] {
	case stateOpen:
		if cb.now().Sub(cb.lastFailure[family]) > cb.openDuration {
			cb.setState(family, stateHalfOpen)
			return nil
		}
		nextRetry := cb.lastFailure[family].Add(cb.openDuration)
		return fmt.Errorf("%w for %q (failures: %d, next retry: %s)",
			ErrCircuitOpen, family, cb.failures[family], nextRetry.Format("15:04:05"))
	default:
		return nil
	}
}

func (cb *circuitBreaker) recordSuccess(family string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	delete(cb.failures, family)
	delete(cb.lastFailure, family)
	if cb.state[family] != stateClosed {
		cb.setState(family, stateClosed)
	}
}

func (cb *circuitBreaker) recordFailure(family string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[family]++
	cb.lastFailure[family] = cb.now()

	count := cb.failures[family]
	if count >= cb.failureThreshold || cb.state[family] == stateHalfOpen {
		if cb.state[family] != stateOpen {
			cb.logger.Warn("reddit circuit opened",
				"family", family,
				"failures", count,
				"error", err)
			cb.setState(family, stateOpen)
		}
		return
	}
	cb.logger.Debug("reddit call failed",
		"family", family,
		"failures", count,
		"threshold", cb.failureThreshold,
		"error", err)
}

// setState must be called with the lock held.
func (cb *circuitBreaker) setState(family string, s circuitState) {
	cb.state[family] = s
	cb.logger.Info("reddit circuit state changed", "family", family, "state", s.String())
}
