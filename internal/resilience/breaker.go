// Package resilience guards outbound calls to model providers.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type phase int

const (
	phaseClosed phase = iota
	phaseOpen
	phaseHalfOpen
)

// Breaker is a consecutive-failure circuit breaker. After maxFailures
// failures in a row it rejects calls for the cooldown period, then lets a
// single probe call through; the probe's outcome decides whether the
// circuit closes again or reopens.
type Breaker struct {
	mu          sync.Mutex
	phase       phase
	failures    int
	maxFailures int
	cooldown    time.Duration
	openedAt    time.Time
	clock       func() time.Time
}

// NewBreaker returns a closed breaker that trips after maxFailures
// consecutive failures and cools down for the given duration.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		clock:       time.Now,
	}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without calling fn. fn's error is passed through.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.recordFailure()
		return err
	}

	b.recordSuccess()
	return nil
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.phase {
	case phaseClosed, phaseHalfOpen:
		return true
	case phaseOpen:
		if b.clock().Sub(b.openedAt) >= b.cooldown {
			b.phase = phaseHalfOpen
			return true
		}
	}
	return false
}

// recordFailure must be called with b.mu held. A half-open failure trips
// the circuit immediately regardless of the count.
func (b *Breaker) recordFailure() {
	b.failures++
	if b.phase == phaseHalfOpen || b.failures >= b.maxFailures {
		b.phase = phaseOpen
		b.openedAt = b.clock()
	}
}

// recordSuccess must be called with b.mu held.
func (b *Breaker) recordSuccess() {
	b.failures = 0
	b.phase = phaseClosed
}
