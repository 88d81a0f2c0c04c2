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
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foremanhq/foreman/internal/log"
)

// session tracks one live tool-server connection together with its
// resilience state.
type session struct {
	// config is the server configuration the session was dialed with
	config ServerConfig

	// client is the active connection
	client ClientProvider

	// connected is false once the session has been disconnected;
	// in-flight calls observe it and fail instead of touching a
	// closed client
	connected bool

	// tools is the definition list captured at connect time
	tools []ToolDefinition

	// breaker is the per-session circuit breaker
	breaker *circuitBreaker

	// mu protects the fields above
	mu sync.RWMutex
}

// Manager owns the tool-server session registry and the resilience gate in
// front of every tool call. It is safe for concurrent use.
type Manager struct {
	// sessions tracks all connected servers by name
	sessions map[string]*session

	// logger is used for structured logging
	logger *slog.Logger

	// dial establishes a connection for a server config; overridable
	// in tests
	dial DialFunc

	// mu protects the sessions map
	mu sync.RWMutex
}

// ManagerConfig configures the manager.
type ManagerConfig struct {
	// Logger is used for structured logging (optional)
	Logger *slog.Logger

	// Dial overrides how servers are dialed (optional, used in tests)
	Dial DialFunc
}

// NewManager creates a manager with no sessions.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dial := cfg.Dial
	if dial == nil {
		dial = dialServer
	}

	return &Manager{
		sessions: make(map[string]*session),
		logger:   log.WithComponent(logger, "mcp"),
		dial:     dial,
	}
}

// Initialize connects every enabled server in configs concurrently. A server
// that fails to connect is logged and skipped; it does not prevent the
// others from coming up, and it does not appear in the registry afterwards.
func (m *Manager) Initialize(ctx context.Context, configs map[string]ServerConfig) {
	var wg sync.WaitGroup
	for name, cfg := range configs {
		if cfg.Disabled {
			m.logger.Debug("skipping disabled server", log.ServerKey, name)
			continue
		}

		wg.Add(1)
		go func(name string, cfg ServerConfig) {
			defer wg.Done()
			if err := m.Connect(ctx, name, cfg); err != nil {
				m.logger.Error("failed to connect to server",
					log.ServerKey, name,
					log.Error(err),
				)
			}
		}(name, cfg)
	}
	wg.Wait()
}

// Connect dials a single server, captures its tool list, and installs the
// session. The dial happens without holding the registry lock so that a slow
// server cannot block operations on the others.
func (m *Manager) Connect(ctx context.Context, name string, cfg ServerConfig) error {
	if err := ValidateServerName(name); err != nil {
		return &ConfigurationError{Server: name, Reason: err.Error()}
	}
	cfg.Name = name

	m.mu.RLock()
	_, exists := m.sessions[name]
	m.mu.RUnlock()
	if exists {
		return &ConfigurationError{Server: name, Reason: "server is already connected"}
	}

	start := time.Now()
	client, err := m.dial(ctx, cfg)
	if err != nil {
		return err
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		_ = client.Close()
		return &ConnectionError{Server: name, Cause: err}
	}

	breaker := newCircuitBreaker(cfg.Breaker)
	breaker.onTransition = func(to BreakerState) {
		breakerTransitions.WithLabelValues(name, string(to)).Inc()
		m.logger.Warn("circuit breaker state change",
			log.ServerKey, name,
			"state", string(to),
		)
	}

	sess := &session{
		config:    cfg,
		client:    client,
		connected: true,
		tools:     tools,
		breaker:   breaker,
	}

	m.mu.Lock()
	if _, exists := m.sessions[name]; exists {
		// Lost the race with a concurrent Connect for the same name.
		m.mu.Unlock()
		_ = client.Close()
		return &ConfigurationError{Server: name, Reason: "server is already connected"}
	}
	m.sessions[name] = sess
	m.mu.Unlock()

	connectedSessions.Inc()
	m.logger.Info("connected to server",
		log.ServerKey, name,
		log.TransportKey, string(cfg.Transport),
		"tools", len(tools),
		log.DurationKey, time.Since(start).Milliseconds(),
	)

	return nil
}

// Disconnect closes a single session and removes it from the registry. The
// session is removed even if closing the underlying client fails.
func (m *Manager) Disconnect(name string) error {
	m.mu.Lock()
	sess, exists := m.sessions[name]
	if !exists {
		m.mu.Unlock()
		return &UnknownServerError{Server: name}
	}
	delete(m.sessions, name)
	m.mu.Unlock()

	sess.mu.Lock()
	sess.connected = false
	client := sess.client
	sess.client = nil
	sess.mu.Unlock()

	connectedSessions.Dec()

	if client != nil {
		if err := client.Close(); err != nil {
			m.logger.Warn("error closing client",
				log.ServerKey, name,
				log.Error(err),
			)
		}
	}

	m.logger.Info("disconnected from server", log.ServerKey, name)
	return nil
}

// DisconnectAll closes every session. Afterwards the registry is empty.
// In-flight calls observe the disconnected flag and fail rather than
// touching a closed client.
func (m *Manager) DisconnectAll() {
	m.mu.RLock()
	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	m.mu.RUnlock()

	for _, name := range names {
		_ = m.Disconnect(name)
	}
}

// Reconnect tears down a session and dials it again with its original
// configuration. The circuit breaker starts fresh.
func (m *Manager) Reconnect(ctx context.Context, name string) error {
	m.mu.RLock()
	sess, exists := m.sessions[name]
	m.mu.RUnlock()
	if !exists {
		return &UnknownServerError{Server: name}
	}

	sess.mu.RLock()
	cfg := sess.config
	sess.mu.RUnlock()

	if err := m.Disconnect(name); err != nil {
		return err
	}
	return m.Connect(ctx, name, cfg)
}

/// Reload reconciles the registry against a new configuration map: servers
// that disappeared are disconnected, new ones are connected, and existing
// ones are left alone unless their configuration changed.
func (m *Manager) Reload(ctx context.Context, configs map[string]ServerConfig) {
	m.mu.RLock()
	current := make(map[string]ServerConfig, len(m.sessions))
	for name, sess := range m.sessions {
		sess.mu.RLock()
		current[name] = sess.config
		sess.mu.RUnlock()
	}
	m.mu.RUnlock()

	for name := range current {
		cfg, keep := configs[name]
		if keep && !cfg.Disabled {
			continue
		}
		m.logger.Info("removing server on reload", log.ServerKey, name)
		_ = m.Disconnect(name)
	}

	m.Initialize(ctx, m.reloadDelta(current, configs))
}

// reloadDelta returns the configs that need a (re)connect: new servers plus
// existing servers whose configuration changed.
func (m *Manager) reloadDelta(current, next map[string]ServerConfig) map[string]ServerConfig {
	delta := make(map[string]ServerConfig)
	for name, cfg := range next {
		if cfg.Disabled {
			continue
		}
		old, exists := current[name]
		if !exists {
			delta[name] = cfg
			continue
		}
		cfg.Name = name
		old.Name = name
		if !serverConfigEqual(old, cfg) {
			m.logger.Info("server configuration changed, reconnecting", log.ServerKey, name)
			_ = m.Disconnect(name)
			delta[name] = cfg
		}
	}
	return delta
}

// serverConfigEqual compares the dial-relevant parts of two configs.
func serverConfigEqual(a, b ServerConfig) bool {
	if a.Transport != b.Transport || a.Command != b.Command || a.URL != b.URL || a.Timeout != b.Timeout {
		return false
	}
	if len(a.Args) != len(b.Args) || len(a.Env) != len(b.Env) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] {
			return false
		}
	}
	for k, v := range a.Env {
		if b.Env[k] != v {
			return false
		}
	}
	return true
}

// CallTool invokes a tool on a connected server, applying the circuit
// breaker gate once and the retry policy across attempts.
//
// The breaker is consulted exactly once, before the first attempt; an open
// breaker rejects the call with zero attempts made. Each failed attempt is
// recorded against the breaker individually, so a single call can trip it.
// Any successful attempt resets the breaker completely. A response with
// IsError set is a successful protocol exchange and counts as a success.
func (m *Manager) CallTool(ctx context.Context, server string, req ToolCallRequest) (*ToolCallResponse, error) {
	m.mu.RLock()
	sess, exists := m.sessions[server]
	m.mu.RUnlock()
	if !exists {
		return nil, &UnknownServerError{Server: server}
	}

	sess.mu.RLock()
	connected := sess.connected
	client := sess.client
	policy := sess.config.Retry
	breaker := sess.breaker
	sess.mu.RUnlock()

	if !connected || client == nil {
		return nil, &NotConnectedError{Server: server}
	}

	if retryIn, ok := breaker.allow(); !ok {
		toolCallsTotal.WithLabelValues(server, "rejected").Inc()
		return nil, &CircuitOpenError{Server: server, RetryIn: retryIn}
	}

	callID := uuid.NewString()
	logger := m.logger.With(
		log.ServerKey, server,
		log.ToolKey, req.Name,
		log.CallIDKey, callID,
	)

	start := time.Now()
	defer func() {
		toolCallDuration.WithLabelValues(server).Observe(time.Since(start).Seconds())
	}()

	attempts := policy.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			toolCallRetries.WithLabelValues(server).Inc()
			delay := policy.Delay(attempt - 1)
			logger.Debug("retrying tool call",
				log.AttemptKey, attempt+1,
				"backoff", delay.String(),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				toolCallsTotal.WithLabelValues(server, "failure").Inc()
				return nil, &ToolCallError{
					Server:   server,
					Tool:     req.Name,
					Attempts: attempt,
					Cause:    ctx.Err(),
				}
			}
		}

		resp, err := client.CallTool(ctx, req)
		if err == nil {
			breaker.recordSuccess()
			toolCallsTotal.WithLabelValues(server, "success").Inc()
			logger.Debug("tool call succeeded",
				log.AttemptKey, attempt+1,
				log.DurationKey, time.Since(start).Milliseconds(),
			)
			return resp, nil
		}

		breaker.recordFailure()
		lastErr = err
		logger.Warn("tool call attempt failed",
			log.AttemptKey, attempt+1,
			log.Error(err),
		)
	}

	toolCallsTotal.WithLabelValues(server, "failure").Inc()
	return nil, &ToolCallError{
		Server:   server,
		Tool:     req.Name,
		Attempts: attempts,
		Cause:    lastErr,
	}
}

// GetServerStatus returns a point-in-time status snapshot per server.
func (m *Manager) GetServerStatus() map[string]ServerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make(map[string]ServerStatus, len(m.sessions))
	for name, sess := range m.sessions {
		sess.mu.RLock()
		names := make([]string, 0, len(sess.tools))
		for _, tool := range sess.tools {
			names = append(names, tool.Name)
		}
		sort.Strings(names)
		statuses[name] = ServerStatus{
			Connected: sess.connected,
			ToolCount: len(sess.tools),
			Tools:     names,
		}
		sess.mu.RUnlock()
	}
	return statuses
}

// GetAllAvailableTools returns every tool from every connected server,
// tagged with its server of origin and ordered by server then tool name.
func (m *Manager) GetAllAvailableTools() []ToolDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tools []ToolDescriptor
	for name, sess := range m.sessions {
		sess.mu.RLock()
		if sess.connected {
			for _, tool := range sess.tools {
				tools = append(tools, ToolDescriptor{
					Server:      name,
					Name:        tool.Name,
					Description: tool.Description,
					InputSchema: tool.InputSchema,
				})
			}
		}
		sess.mu.RUnlock()
	}

	sort.Slice(tools, func(i, j int) bool {
		if tools[i].Server != tools[j].Server {
			return tools[i].Server < tools[j].Server
		}
		return tools[i].Name < tools[j].Name
	})
	return tools
}

// GetCircuitBreakerStats returns a snapshot of every session's breaker.
func (m *Manager) GetCircuitBreakerStats() map[string]BreakerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]BreakerStats, len(m.sessions))
	for name, sess := range m.sessions {
		stats[name] = sess.breaker.stats()
	}
	return stats
}

// ResetCircuitBreaker forces a session's breaker back to closed with a
// zeroed failure count. Returns false if the server is unknown.
func (m *Manager) ResetCircuitBreaker(name string) bool {
	m.mu.RLock()
	sess, exists := m.sessions[name]
	m.mu.RUnlock()
	if !exists {
		return false
	}

	sess.breaker.reset()
	m.logger.Info("circuit breaker reset", log.ServerKey, name)
	return true
}

// ServerCount returns the number of registered sessions.
func (m *Manager) ServerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close disconnects every session.
func (m *Manager) Close() error {
	m.DisconnectAll()
	return nil
}
