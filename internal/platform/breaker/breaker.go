// Package breaker wraps sony/gobreaker so the HTTP adapter can fail fast while the
// backend is down. It never retries: an open breaker only rejects calls.
package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// State represents the circuit breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrOpen is returned when the breaker rejects a call without executing it.
var ErrOpen = errors.New("circuit breaker open")

// Config holds circuit breaker configuration
type Config struct {
	Name string
	// MaxRequests is max requests allowed in half-open state
	MaxRequests uint32
	// Interval is the cyclic period for clearing counts in closed state
	Interval time.Duration
	// Timeout is how long to wait before transitioning from open to half-open
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold uint32
}

// DefaultConfig returns defaults suitable for the EPS backend.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Breaker wraps gobreaker with logging and a state hook.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *zap.Logger

	mu       sync.RWMutex
	state    State
	onChange func(name string, to State)
}

// New creates a breaker. onChange may be nil.
func New(cfg Config, logger *zap.Logger, onChange func(name string, to State)) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	b := &Breaker{
		name:     cfg.Name,
		logger:   logger,
		state:    StateClosed,
		onChange: onChange,
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			b.transition(from, to)
		},
	})
	return b
}

// Execute runs fn through the breaker. fn reports whether its outcome should count as a
// backend failure separately from the value it returns, so 4xx answers keep the circuit closed.
func (b *Breaker) Execute(fn func() (any, bool, error)) (any, error) {
	var callErr error
	res, err := b.cb.Execute(func() (any, error) {
		v, countsAsFailure, err := fn()
		callErr = err
		if countsAsFailure {
			if err == nil {
				err = errors.New("backend failure")
			}
			return v, err
		}
		return v, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrOpen
	}
	return res, callErr
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *Breaker) transition(from, to gobreaker.State) {
	toState := mapState(to)

	b.mu.Lock()
	b.state = toState
	b.mu.Unlock()

	b.logger.Warn("circuit breaker state changed",
		zap.String("breaker", b.name),
		zap.String("from", string(mapState(from))),
		zap.String("to", string(toState)))

	if b.onChange != nil {
		b.onChange(b.name, toState)
	}
}

func mapState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Gauge maps a state to the numeric value published as a metric.
func Gauge(s State) float64 {
	switch s {
	case StateOpen:
		return 1
	case StateHalfOpen:
		return 2
	default:
		return 0
	}
}
