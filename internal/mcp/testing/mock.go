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

// Package testing provides mock implementations of the mcp package's
// client interfaces for use in tests.
package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/foremanhq/foreman/internal/mcp"
)

// MockClient implements mcp.ClientProvider for testing.
type MockClient struct {
	serverName string
	tools      []mcp.ToolDefinition
	callFunc   func(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error)
	pingFunc   func(ctx context.Context) error
	closeFunc  func() error
	callDelay  time.Duration
	callCount  int
	closed     bool
	mu         sync.RWMutex
}

// NewMockClient creates a mock client serving the given tools.
func NewMockClient(serverName string, tools []mcp.ToolDefinition) *MockClient {
	return &MockClient{
		serverName: serverName,
		tools:      tools,
	}
}

// ServerName returns the mock server name.
func (c *MockClient) ServerName() string {
	return c.serverName
}

// ListTools returns the configured list of tools.
func (c *MockClient) ListTools(ctx context.Context) ([]mcp.ToolDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	toolsCopy := make([]mcp.ToolDefinition, len(c.tools))
	copy(toolsCopy, c.tools)
	return toolsCopy, nil
}

// CallTool executes a tool call using the configured handler. Every
// invocation is counted, including failed ones.
func (c *MockClient) CallTool(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error) {
	c.mu.Lock()
	c.callCount++
	delay := c.callDelay
	callFunc := c.callFunc
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if callFunc != nil {
		return callFunc(ctx, req)
	}

	return &mcp.ToolCallResponse{
		Content: []mcp.ContentItem{
			{
				Type: "text",
				Text: fmt.Sprintf("Mock response for %s", req.Name),
			},
		},
	}, nil
}

// Ping returns success unless a custom ping function is configured.
func (c *MockClient) Ping(ctx context.Context) error {
	c.mu.RLock()
	pingFunc := c.pingFunc
	c.mu.RUnlock()

	if pingFunc != nil {
		return pingFunc(ctx)
	}
	return nil
}

// Close marks the client closed.
func (c *MockClient) Close() error {
	c.mu.Lock()
	c.closed = true
	closeFunc := c.closeFunc
	c.mu.Unlock()

	if closeFunc != nil {
		return closeFunc()
	}
	return nil
}

// CallCount returns how many times CallTool was invoked.
func (c *MockClient) CallCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callCount
}

// Closed reports whether Close was called.
func (c *MockClient) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// SetCallHandler sets a custom call handler for this client.
func (c *MockClient) SetCallHandler(f func(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callFunc = f
}

// SetCallDelay sets a delay for all tool calls.
func (c *MockClient) SetCallDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callDelay = d
}

// SetPingFunc sets a custom ping function.
func (c *MockClient) SetPingFunc(f func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingFunc = f
}

// SetCloseFunc sets a custom close function.
func (c *MockClient) SetCloseFunc(f func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeFunc = f
}

// MockDialer builds a mcp.DialFunc backed by per-server mock clients.
// Servers without an entry fail to dial with a connection error, which
// makes partial-initialization scenarios easy to stage.
type MockDialer struct {
	clients   map[string]*MockClient
	dialErrs  map[string]error
	dialDelay time.Duration
	mu        sync.RWMutex
}

// NewMockDialer creates an empty dialer.
func NewMockDialer() *MockDialer {
	return &MockDialer{
		clients:  make(map[string]*MockClient),
		dialErrs: make(map[string]error),
	}
}

// AddServer registers a mock client for a server name and returns it for
// further configuration.
func (d *MockDialer) AddServer(name string, tools []mcp.ToolDefinition) *MockClient {
	client := NewMockClient(name, tools)
	d.mu.Lock()
	d.clients[name] = client
	d.mu.Unlock()
	return client
}

// FailServer makes dialing the named server return the given error.
func (d *MockDialer) FailServer(name string, err error) {
	d.mu.Lock()
	d.dialErrs[name] = err
	d.mu.Unlock()
}

// SetDialDelay delays every dial, for staging slow-server scenarios.
func (d *MockDialer) SetDialDelay(delay time.Duration) {
	d.mu.Lock()
	d.dialDelay = delay
	d.mu.Unlock()
}

// Client returns the registered mock client for a server, or nil.
func (d *MockDialer) Client(name string) *MockClient {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.clients[name]
}

// Dial implements mcp.DialFunc.
func (d *MockDialer) Dial(ctx context.Context, cfg mcp.ServerConfig) (mcp.ClientProvider, error) {
	d.mu.RLock()
	delay := d.dialDelay
	dialErr := d.dialErrs[cfg.Name]
	client := d.clients[cfg.Name]
	d.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if dialErr != nil {
		return nil, &mcp.ConnectionError{Server: cfg.Name, Cause: dialErr}
	}
	if client == nil {
		return nil, &mcp.ConnectionError{Server: cfg.Name, Cause: fmt.Errorf("no mock registered for server %s", cfg.Name)}
	}
	return client, nil
}
