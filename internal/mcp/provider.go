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

import "context"

// ClientProvider defines the interface for interacting with an established
// MCP server connection. It enables dependency injection and testing with
// mock implementations.
type ClientProvider interface {
	// ServerName returns the unique identifier for this server.
	ServerName() string

	// ListTools retrieves the list of available tools from the MCP server.
	ListTools(ctx context.Context) ([]ToolDefinition, error)

	// CallTool executes a single MCP tool invocation attempt.
	CallTool(ctx context.Context, req ToolCallRequest) (*ToolCallResponse, error)

	// Ping checks if the server is still responsive.
	Ping(ctx context.Context) error

	// Close closes the connection to the MCP server.
	Close() error
}

// DialFunc establishes a connection to one configured server. The manager
// uses dialServer by default; tests substitute their own.
type DialFunc func(ctx context.Context, cfg ServerConfig) (ClientProvider, error)
