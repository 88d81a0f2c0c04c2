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
	"time"
)

// ConfigurationError indicates a malformed or incomplete server
// configuration, such as a missing command for a stdio transport or a
// missing URL for a stream transport. Raised at connect time and isolated
// per server.
type ConfigurationError struct {
	// Server is the name of the misconfigured server
	Server string
	// Field is the configuration field at fault
	Field string
	// Reason describes what is wrong
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("server %q: invalid configuration (%s): %s", e.Server, e.Field, e.Reason)
	}
	return fmt.Sprintf("server %q: invalid configuration: %s", e.Server, e.Reason)
}

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *ConfigurationError) ErrorType() string { return "configuration" }

// IsRetryable implements pkg/errors.ErrorClassifier.
func (e *ConfigurationError) IsRetryable() bool { return false }

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *ConfigurationError) IsUserVisible() bool { return true }

// UserMessage implements pkg/errors.UserVisibleError.
func (e *ConfigurationError) UserMessage() string {
	return fmt.Sprintf("Server %q has an invalid configuration: %s", e.Server, e.Reason)
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *ConfigurationError) Suggestion() string {
	return "Check the server entry in servers.yaml"
}

// ConnectionError indicates the transport could not be opened or the MCP
// handshake failed.
type ConnectionError struct {
	// Server is the name of the server that could not be reached
	Server string
	// Cause is the underlying transport or protocol error
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("server %q: connection failed: %v", e.Server, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error { return e.Cause }

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *ConnectionError) ErrorType() string { return "connection" }

// IsRetryable implements pkg/errors.ErrorClassifier.
func (e *ConnectionError) IsRetryable() bool { return true }

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *ConnectionError) IsUserVisible() bool { return true }

// UserMessage implements pkg/errors.UserVisibleError.
func (e *ConnectionError) UserMessage() string {
	return fmt.Sprintf("Could not connect to server %q", e.Server)
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *ConnectionError) Suggestion() string {
	return fmt.Sprintf("Verify the server is reachable, then: foreman servers reconnect %s", e.Server)
}

// UnknownServerError indicates a call referenced a name that was never
// configured or has already been disconnected from the registry.
type UnknownServerError struct {
	// Server is the unknown name
	Server string
}

// Error implements the error interface.
func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("unknown server: %q", e.Server)
}

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *UnknownServerError) ErrorType() string { return "unknown_server" }

// IsRetryable implements pkg/errors.ErrorClassifier.
func (e *UnknownServerError) IsRetryable() bool { return false }

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *UnknownServerError) IsUserVisible() bool { return true }

// UserMessage implements pkg/errors.UserVisibleError.
func (e *UnknownServerError) UserMessage() string {
	return fmt.Sprintf("No connected server named %q", e.Server)
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *UnknownServerError) Suggestion() string {
	return "Check the server name: foreman servers list"
}

// NotConnectedError indicates the server name is known but its session is
// not currently live.
type NotConnectedError struct {
	// Server is the name of the disconnected server
	Server string
}

// Error implements the error interface.
func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("server %q is not connected", e.Server)
}

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *NotConnectedError) ErrorType() string { return "not_connected" }

// IsRetryable implements pkg/errors.ErrorClassifier.
func (e *NotConnectedError) IsRetryable() bool { return true }

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *NotConnectedError) IsUserVisible() bool { return true }

// UserMessage implements pkg/errors.UserVisibleError.
func (e *NotConnectedError) UserMessage() string {
	return fmt.Sprintf("Server %q is not connected", e.Server)
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *NotConnectedError) Suggestion() string {
	return fmt.Sprintf("Reconnect it: foreman servers reconnect %s", e.Server)
}

// CircuitOpenError indicates the circuit breaker is blocking calls to a
// server. RetryIn is the time remaining until the breaker allows a probe.
type CircuitOpenError struct {
	// Server is the name of the blocked server
	Server string
	// RetryIn is the time remaining until probing resumes
	RetryIn time.Duration
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("server %q: circuit breaker open, retry in %s", e.Server, e.RetryIn.Round(time.Millisecond))
}

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *CircuitOpenError) ErrorType() string { return "circuit_open" }

// IsRetryable implements pkg/errors.ErrorClassifier.
// The caller should wait at least RetryIn before retrying.
func (e *CircuitOpenError) IsRetryable() bool { return false }

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *CircuitOpenError) IsUserVisible() bool { return true }

// UserMessage implements pkg/errors.UserVisibleError.
func (e *CircuitOpenError) UserMessage() string {
	return fmt.Sprintf("Server %q is temporarily unavailable (circuit breaker open, retry in %s)",
		e.Server, e.RetryIn.Round(time.Second))
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *CircuitOpenError) Suggestion() string {
	return fmt.Sprintf("Wait for the breaker to probe, or force it: foreman breakers reset %s", e.Server)
}

// ToolCallError indicates a tool invocation failed after exhausting its
// retry budget. Cause is the error from the last attempt.
type ToolCallError struct {
	// Server is the name of the server that was called
	Server string
	// Tool is the name of the tool that was invoked
	Tool string
	// Attempts is the total number of attempts made
	Attempts int
	// Cause is the last recorded error
	Cause error
}

// Error implements the error interface.
func (e *ToolCallError) Error() string {
	return fmt.Sprintf("tool %q on server %q failed after %d attempts: %v", e.Tool, e.Server, e.Attempts, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ToolCallError) Unwrap() error { return e.Cause }

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *ToolCallError) ErrorType() string { return "tool_call" }

// IsRetryable implements pkg/errors.ErrorClassifier.
// The call already retried; further retries are the caller's decision.
func (e *ToolCallError) IsRetryable() bool { return true }

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *ToolCallError) IsUserVisible() bool { return true }

// UserMessage implements pkg/errors.UserVisibleError.
func (e *ToolCallError) UserMessage() string {
	return fmt.Sprintf("Tool %q on server %q failed after %d attempts", e.Tool, e.Server, e.Attempts)
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *ToolCallError) Suggestion() string {
	return fmt.Sprintf("Check the server's health: foreman servers status %s", e.Server)
}
