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

// Package mcp manages connections to Model Context Protocol tool servers.
//
// The package owns three cooperating pieces:
//
//   - A session store: one live session per configured server name, built by
//     Initialize from a configuration map. Per-server connect attempts run
//     concurrently and a failure on one server never blocks the others; the
//     failed server is simply absent from the store.
//
//   - A resilience gate: every outbound tool invocation passes through a
//     per-session circuit breaker and a per-call retry loop with capped
//     exponential backoff. The breaker is checked once per external call,
//     not once per retry attempt, so a server that is considered healthy
//     when a call starts gets its full retry budget, while the failures it
//     records still protect subsequent calls.
//
//   - Introspection: read-only snapshots of session health, discovered
//     tools, and breaker state for the CLI and the status API.
//
// Two transports are supported behind one session abstraction: a subprocess
// pipe (stdio) and a streamable HTTP connection. The MCP handshake, tool
// discovery, and tool invocation are delegated to mark3labs/mcp-go; this
// package owns connection lifecycle, retry policy, and failure isolation.
package mcp
