package circuitbreaker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker
type State int

const (
	// StateClosed means calls go through normally
	StateClosed State = iota
	// StateOpen means calls are rejected without being attempted
	StateOpen
	// StateHalfOpen means a limited number of trial calls are allowed
	StateHalfOpen
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains the configuration for a circuit breaker
type Config struct {
	Name             string        // Name used in logs and state callbacks
	FailureThreshold int           // Consecutive failures before opening
	Timeout          time.Duration // Time spent OPEN before trying HALF-OPEN
	HalfOpenRequests int           // Trial calls allowed in HALF-OPEN
	Logger           *slog.Logger  // Optional
	OnStateChange    func(name string, from, to State)
}

// CircuitBreaker guards calls to an unreliable dependency.
type CircuitBreaker interface {
	// Execute runs fn if the circuit allows it
	Execute(fn func() error) error
	// State returns the current state
	State() State
	// Reset forces the breaker back to CLOSED
	Reset()
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is in OPEN state
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrHalfOpenLimitReached is returned when too many calls are made in HALF-OPEN state
	ErrHalfOpenLimitReached = errors.New("circuit breaker half-open request limit reached")
)

// ignoredError marks an error that must not change the breaker's counts.
type ignoredError struct{ err error }

func (e *ignoredError) Error() string { return e.err.Error() }
func (e *ignoredError) Unwrap() error { return e.err }

// Ignore wraps err so that Execute returns it without recording a failure,
// e.g. when the caller gave up rather than the dependency failing.
func Ignore(err error) error {
	if err == nil {
		return nil
	}
	return &ignoredError{err: err}
}

func isIgnored(err error) bool {
	var ie *ignoredError
	return errors.As(err, &ie)
}

type breaker struct {
	config Config
	mu     sync.Mutex
	now    func() time.Time

	state             State
	failureCount      int
	halfOpenRequests  int
	halfOpenSuccesses int
	openedAt          time.Time
}

// New creates a new circuit breaker. Zero values in cfg select defaults:
// 5 failures, 30s timeout, 1 half-open request.
func New(cfg Config) CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = 1
	}

	return &breaker{
		config: cfg,
		now:    time.Now,
		state:  StateClosed,
	}
}

func (b *breaker) Execute(fn func() error) error {
	b.mu.Lock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.config.Timeout {
		b.transitionTo(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		b.mu.Unlock()
		return ErrCircuitOpen

	case StateHalfOpen:
		if b.halfOpenRequests >= b.config.HalfOpenRequests {
			b.mu.Unlock()
			return ErrHalfOpenLimitReached
		}
		b.halfOpenRequests++
		b.mu.Unlock()

		err := fn()

		b.mu.Lock()
		defer b.mu.Unlock()
		if err != nil && isIgnored(err) {
			if b.state == StateHalfOpen {
				b.halfOpenRequests--
			}
			return err
		}
		if err != nil {
			b.transitionTo(StateOpen)
			return err
		}
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.config.HalfOpenRequests {
			b.transitionTo(StateClosed)
		}
		return nil

	case StateClosed:
		b.mu.Unlock()

		err := fn()

		b.mu.Lock()
		defer b.mu.Unlock()
		if err != nil && isIgnored(err) {
			return err
		}
		if err != nil {
			b.failureCount++
			if b.failureCount >= b.config.FailureThreshold {
				b.transitionTo(StateOpen)
			}
			return err
		}
		b.failureCount = 0
		return nil

	default:
		state := b.state
		b.mu.Unlock()
		return fmt.Errorf("unknown circuit breaker state: %d", state)
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(StateClosed)
}

// transitionTo changes the state. Must be called with lock held.
func (b *breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState

	if b.config.Logger != nil {
		b.config.Logger.Warn("circuit breaker state change",
			"breaker", b.config.Name,
			"from", oldState.String(),
			"to", newState.String(),
		)
	}
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(b.config.Name, oldState, newState)
	}

	switch newState {
	case StateClosed:
		b.failureCount = 0
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
		b.openedAt = time.Time{}

	case StateOpen:
		b.openedAt = b.now()
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0

	case StateHalfOpen:
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
	}
}
