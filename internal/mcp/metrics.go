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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foreman_mcp_tool_calls_total",
		Help: "Total number of tool calls by server and outcome.",
	}, []string{"server", "outcome"})

	toolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foreman_mcp_tool_call_duration_seconds",
		Help:    "Tool call duration in seconds, including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"server"})

	toolCallRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foreman_mcp_tool_call_retries_total",
		Help: "Total number of tool call retry attempts by server.",
	}, []string{"server"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foreman_mcp_breaker_transitions_total",
		Help: "Circuit breaker state transitions by server and new state.",
	}, []string{"server", "to"})

	connectedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "foreman_mcp_connected_sessions",
		Help: "Number of currently connected tool-server sessions.",
	})
)
