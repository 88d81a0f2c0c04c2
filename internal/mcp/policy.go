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
	"fmt"
	"math"
	"time"
)

// RetryPolicy configures the per-call retry loop for tool invocations.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt,
	// so a call performs at most MaxRetries+1 attempts.
	MaxRetries int

	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration

	// Multiplier is the exponential backoff factor (>= 1).
	Multiplier float64

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the default retry settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		Multiplier: 2.0,
		MaxDelay:   30 * time.Second,
	}
}

// Validate checks if the retry policy is valid.
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", p.MaxRetries)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("base_delay must be non-negative, got %v", p.BaseDelay)
	}
	if p.Multiplier < 1.0 {
		return fmt.Errorf("multiplier must be >= 1.0, got %g", p.Multiplier)
	}
	if p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("max_delay (%v) must be >= base_delay (%v)", p.MaxDelay, p.BaseDelay)
	}
	return nil
}

// Delay returns the backoff before retrying after the given zero-indexed
// attempt: min(BaseDelay * Multiplier^attempt, MaxDelay).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))
	if delay > p.MaxDelay || delay < 0 {
		delay = p.MaxDelay
	}
	return delay
}

// CircuitBreakerPolicy configures the per-session circuit breaker.
type CircuitBreakerPolicy struct {
	// FailureThreshold is the number of consecutive recorded failures
	// before the breaker opens.
	FailureThreshold int

	// ResetTimeout is how long an open breaker blocks calls before
	// allowing a half-open probe.
	ResetTimeout time.Duration

	// MonitoringPeriod is an advisory observation window reported in
	// stats. It is not used for correctness.
	MonitoringPeriod time.Duration
}

// DefaultCircuitBreakerPolicy returns the default breaker settings.
func DefaultCircuitBreakerPolicy() CircuitBreakerPolicy {
	return CircuitBreakerPolicy{
		FailureThreshold: 5,
		ResetTimeout:     60 * time.Second,
	}
}

// Validate checks if the breaker policy is valid.
func (p CircuitBreakerPolicy) Validate() error {
	if p.FailureThreshold < 1 {
		return fmt.Errorf("failure_threshold must be at least 1, got %d", p.FailureThreshold)
	}
	if p.ResetTimeout <= 0 {
		return fmt.Errorf("reset_timeout must be positive, got %v", p.ResetTimeout)
	}
	if p.MonitoringPeriod < 0 {
		return fmt.Errorf("monitoring_period must be non-negative, got %v", p.MonitoringPeriod)
	}
	return nil
}
