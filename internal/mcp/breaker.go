// Copyright 2025 Foreman Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcp

import (
	"sync"
	"time"
)

// BreakerState represents a circuit breaker's state.
type BreakerState string

const (
	// BreakerClosed allows calls through. Failures are counted toward
	// the opening threshold.
	BreakerClosed BreakerState = "closed"
	// BreakerOpen blocks calls until the reset timeout elapses.
	BreakerOpen BreakerState = "open"
	// BreakerHalfOpen allows calls through while the breaker waits to
	// see whether the server has recovered.
	BreakerHalfOpen BreakerState = "half-open"
)

// BreakerStats is a read-only snapshot of a session's breaker.
type BreakerStats struct {
	// State is the breaker's current state
	State BreakerState `json:"state"`

	// FailureCount is the number of consecutive recorded failures
	FailureCount int `json:"failure_count"`

	// LastFailureTime is when the most recent failure was recorded.
	// Zero if no failure has been recorded since the last reset.
	LastFailureTime time.Time `json:"last_failure_time,omitzero"`

	// NextRetryTime is when an open breaker will allow a probe.
	// Zero unless the breaker is open.
	NextRetryTime time.Time `json:"next_retry_time,omitzero"`
}

// circuitBreaker guards one session against a consistently failing server.
// All state transitions are serialized by the mutex so that two concurrent
// callers can never both decide to flip open to half-open, and concurrent
// failure increments never race.
type circuitBreaker struct {
	// mu protects every field below
	mu sync.Mutex

	// policy is the breaker configuration, immutable after creation
	policy CircuitBreakerPolicy

	// state is the current breaker state
	state BreakerState

	// failures is the consecutive failure count
	failures int

	// lastFailure is the timestamp of the most recent failure
	lastFailure time.Time

	// nextRetry is the earliest time an open breaker allows a probe
	nextRetry time.Time

	// now is the clock, overridable in tests
	now func() time.Time

	// onTransition is invoked (under the lock) when the state changes
	onTransition func(to BreakerState)
}

// newCircuitBreaker creates a closed breaker with a zeroed failure count.
func newCircuitBreaker(policy CircuitBreakerPolicy) *circuitBreaker {
	return &circuitBreaker{
		policy: policy,
		state:  BreakerClosed,
		now:    time.Now,
	}
}

// allow performs the gate check for one external call. It is called exactly
// once per call, before the retry loop.
//
// Closed and half-open breakers admit the call. An open breaker whose reset
// timeout has not elapsed rejects it, returning the time remaining until
// probing resumes. An open breaker whose timeout has elapsed transitions to
// half-open with a zeroed failure count and admits the call; this is the
// only path out of the open state short of an explicit reset.
func (b *circuitBreaker) allow() (retryIn time.Duration, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != BreakerOpen {
		return 0, true
	}

	now := b.now()
	if now.Before(b.nextRetry) {
		return b.nextRetry.Sub(now), false
	}

	b.setState(BreakerHalfOpen)
	b.failures = 0
	return 0, true
}

// recordFailure counts one failed attempt. Every attempt within a call's
// retry loop records its own failure, so a single unlucky call can trip the
// breaker for subsequent calls. Once the threshold is met the breaker opens
// and the probe time is pushed out from the latest failure.
func (b *circuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.failures++
	b.lastFailure = now

	if b.failures >= b.policy.FailureThreshold {
		b.setState(BreakerOpen)
		b.nextRetry = now.Add(b.policy.ResetTimeout)
	}
}

// recordSuccess resets the breaker fully. A success at any state, including
// a half-open probe, is treated as full recovery.
func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

// reset forces the breaker to closed with zeroed counters, without touching
// the session's transport.
func (b *circuitBreaker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

func (b *circuitBreaker) resetLocked() {
	b.setState(BreakerClosed)
	b.failures = 0
	b.lastFailure = time.Time{}
	b.nextRetry = time.Time{}
}

// setState updates the state and fires the transition hook. Callers must
// hold the lock.
func (b *circuitBreaker) setState(to BreakerState) {
	if b.state == to {
		return
	}
	b.state = to
	if b.onTransition != nil {
		b.onTransition(to)
	}
}

// stats returns a snapshot for introspection. It never mutates state: an
// open breaker past its reset timeout still reports open until the next
// call's gate check probes it.
func (b *circuitBreaker) stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerStats{
		State:           b.state,
		FailureCount:    b.failures,
		LastFailureTime: b.lastFailure,
		NextRetryTime:   b.nextRetry,
	}
}
