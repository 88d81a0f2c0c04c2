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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  time.Second,
		Multiplier: 2.0,
		MaxDelay:   10 * time.Second,
	}

	require.Equal(t, 1*time.Second, p.Delay(0))
	require.Equal(t, 2*time.Second, p.Delay(1))
	require.Equal(t, 4*time.Second, p.Delay(2))
	require.Equal(t, 8*time.Second, p.Delay(3))
	// Capped at MaxDelay from here on.
	require.Equal(t, 10*time.Second, p.Delay(4))
	require.Equal(t, 10*time.Second, p.Delay(50))

	// Large exponents overflow the duration; the cap still holds.
	require.Equal(t, 10*time.Second, p.Delay(500))
}

func TestRetryPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultRetryPolicy().Validate())

	p := DefaultRetryPolicy()
	p.MaxRetries = -1
	require.Error(t, p.Validate())

	p = DefaultRetryPolicy()
	p.Multiplier = 0.5
	require.Error(t, p.Validate())

	p = DefaultRetryPolicy()
	p.MaxDelay = p.BaseDelay - time.Millisecond
	require.Error(t, p.Validate())
}

func TestCircuitBreakerPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultCircuitBreakerPolicy().Validate())

	p := DefaultCircuitBreakerPolicy()
	p.FailureThreshold = 0
	require.Error(t, p.Validate())

	p = DefaultCircuitBreakerPolicy()
	p.ResetTimeout = 0
	require.Error(t, p.Validate())
}
