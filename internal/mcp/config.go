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
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/foremanhq/foreman/internal/config"
)

// ServerNameRegex validates tool-server names.
// Names must start with a letter and contain only letters, numbers, hyphens,
// and underscores. Maximum length is 64 characters.
var ServerNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)

// ServerConfig is the runtime configuration for one tool server, as consumed
// by the Manager. Immutable once handed to Initialize.
type ServerConfig struct {
	// Name is the unique identifier for this server
	Name string

	// Transport selects how the server is reached (stdio or stream)
	Transport TransportKind

	// Command is the executable to run (stdio transport)
	Command string

	// Args are the command-line arguments (stdio transport)
	Args []string

	// Env are environment overrides merged over the current process
	// environment (stdio transport)
	Env map[string]string

	// URL is the endpoint for the stream transport
	URL string

	// Timeout is the per-call timeout (defaults to 30s)
	Timeout time.Duration

	// Disabled excludes this server from initialization
	Disabled bool

	// Retry is the per-call retry policy
	Retry RetryPolicy

	// Breaker is the circuit breaker policy
	Breaker CircuitBreakerPolicy
}

// GlobalConfig represents the tool-server configuration file.
// Stored at ~/.config/foreman/servers.yaml
type GlobalConfig struct {
	// Servers is a map of server name to configuration.
	Servers map[string]*ServerEntry `yaml:"servers,omitempty"`

	// Defaults provides default values for server configuration.
	Defaults Defaults `yaml:"defaults,omitempty"`
}

// ServerEntry represents a single tool-server configuration entry.
type ServerEntry struct {
	// Transport is "stdio" or "stream" (default: "stdio").
	Transport string `yaml:"transport,omitempty"`

	// Command is the executable to run (e.g., "npx", "python").
	Command string `yaml:"command,omitempty"`

	// Args are command-line arguments.
	Args []string `yaml:"args,omitempty"`

	// Env are environment overrides merged over the current process
	// environment. Values may use ${VAR} syntax for substitution by the
	// spawned server.
	Env map[string]string `yaml:"env,omitempty"`

	// URL is the endpoint for the stream transport.
	URL string `yaml:"url,omitempty"`

	// Timeout is the per-call timeout in seconds.
	// Defaults to 30 seconds if not specified.
	Timeout int `yaml:"timeout,omitempty"`

	// Disabled excludes this server from initialization.
	Disabled bool `yaml:"disabled,omitempty"`

	// Retry overrides the default retry policy.
	Retry *RetryEntry `yaml:"retry,omitempty"`

	// CircuitBreaker overrides the default breaker policy.
	CircuitBreaker *BreakerEntry `yaml:"circuit_breaker,omitempty"`
}

// RetryEntry is the YAML shape of a retry policy. Delays are milliseconds.
type RetryEntry struct {
	// MaxRetries is the number of retries after the initial attempt.
	// A pointer so that an explicit 0 is distinguishable from unset.
	MaxRetries *int `yaml:"max_retries,omitempty"`

	// BaseDelayMS is the backoff before the first retry, in milliseconds.
	BaseDelayMS int `yaml:"base_delay_ms,omitempty"`

	// Multiplier is the exponential backoff factor.
	Multiplier float64 `yaml:"multiplier,omitempty"`

	// MaxDelayMS caps the computed backoff, in milliseconds.
	MaxDelayMS int `yaml:"max_delay_ms,omitempty"`
}

// BreakerEntry is the YAML shape of a circuit breaker policy.
type BreakerEntry struct {
	// FailureThreshold is the consecutive failure count that opens the
	// breaker.
	FailureThreshold int `yaml:"failure_threshold,omitempty"`

	// ResetTimeoutMS is how long an open breaker blocks before probing,
	// in milliseconds.
	ResetTimeoutMS int `yaml:"reset_timeout_ms,omitempty"`

	// MonitoringPeriodMS is an advisory observation window, in
	// milliseconds.
	MonitoringPeriodMS int `yaml:"monitoring_period_ms,omitempty"`
}

// Defaults provides default values applied to every server entry.
type Defaults struct {
	// Timeout is the default per-call timeout in seconds (default: 30).
	Timeout int `yaml:"timeout,omitempty"`

	// Retry is the default retry policy.
	Retry *RetryEntry `yaml:"retry,omitempty"`

	// CircuitBreaker is the default breaker policy.
	CircuitBreaker *BreakerEntry `yaml:"circuit_breaker,omitempty"`
}

// LoadGlobalConfig loads the tool-server configuration from the default
// path. Returns an empty config if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := config.ServersConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadGlobalConfigFile(path)
}

// LoadGlobalConfigFile loads the tool-server configuration from the given
// path. Returns an empty config if the file doesn't exist.
func LoadGlobalConfigFile(path string) (*GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{Servers: make(map[string]*ServerEntry)}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Servers == nil {
		cfg.Servers = make(map[string]*ServerEntry)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults applies the defaults section to every server entry.
func (c *GlobalConfig) applyDefaults() {
	defaults := c.Defaults
	if defaults.Timeout == 0 {
		defaults.Timeout = 30
	}

	for _, entry := range c.Servers {
		if entry.Timeout == 0 {
			entry.Timeout = defaults.Timeout
		}
		if entry.Retry == nil {
			entry.Retry = defaults.Retry
		}
		if entry.CircuitBreaker == nil {
			entry.CircuitBreaker = defaults.CircuitBreaker
		}
	}
}

// Validate validates the entire configuration.
func (c *GlobalConfig) Validate() error {
	for name, entry := range c.Servers {
		if err := ValidateServerName(name); err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
	}
	return nil
}

// Validate validates a single server entry. Transport-specific required
// fields are checked again at connect time; this catches what can be caught
// statically.
func (e *ServerEntry) Validate() error {
	switch TransportKind(e.Transport) {
	case TransportStdio, "":
		if e.Command == "" {
			return fmt.Errorf("command is required for the stdio transport")
		}
	case TransportStream:
		if e.URL == "" {
			return fmt.Errorf("url is required for the stream transport")
		}
	default:
		return fmt.Errorf("invalid transport: %s (must be 'stdio' or 'stream')", e.Transport)
	}

	if e.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	for i, arg := range e.Args {
		if err := ValidateArg(arg); err != nil {
			return fmt.Errorf("args[%d]: %w", i, err)
		}
	}

	for key, value := range e.Env {
		if err := ValidateEnv(key, value); err != nil {
			return fmt.Errorf("env[%s]: %w", key, err)
		}
	}

	if e.Retry != nil {
		if err := e.Retry.toPolicy().Validate(); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}
	if e.CircuitBreaker != nil {
		if err := e.CircuitBreaker.toPolicy().Validate(); err != nil {
			return fmt.Errorf("circuit_breaker: %w", err)
		}
	}

	return nil
}

// toPolicy converts a retry entry to a RetryPolicy, filling unset fields
// from the defaults.
func (e *RetryEntry) toPolicy() RetryPolicy {
	policy := DefaultRetryPolicy()
	if e == nil {
		return policy
	}
	if e.MaxRetries != nil {
		policy.MaxRetries = *e.MaxRetries
	}
	if e.BaseDelayMS != 0 {
		policy.BaseDelay = time.Duration(e.BaseDelayMS) * time.Millisecond
	}
	if e.Multiplier != 0 {
		policy.Multiplier = e.Multiplier
	}
	if e.MaxDelayMS != 0 {
		policy.MaxDelay = time.Duration(e.MaxDelayMS) * time.Millisecond
	}
	return policy
}

// toPolicy converts a breaker entry to a CircuitBreakerPolicy, filling
// unset fields from the defaults.
func (e *BreakerEntry) toPolicy() CircuitBreakerPolicy {
	policy := DefaultCircuitBreakerPolicy()
	if e == nil {
		return policy
	}
	if e.FailureThreshold != 0 {
		policy.FailureThreshold = e.FailureThreshold
	}
	if e.ResetTimeoutMS != 0 {
		policy.ResetTimeout = time.Duration(e.ResetTimeoutMS) * time.Millisecond
	}
	if e.MonitoringPeriodMS != 0 {
		policy.MonitoringPeriod = time.Duration(e.MonitoringPeriodMS) * time.Millisecond
	}
	return policy
}

// ToServerConfig converts a server entry to the runtime ServerConfig.
func (e *ServerEntry) ToServerConfig(name string) ServerConfig {
	transport := TransportKind(e.Transport)
	if transport == "" {
		transport = TransportStdio
	}

	return ServerConfig{
		Name:      name,
		Transport: transport,
		Command:   e.Command,
		Args:      e.Args,
		Env:       e.Env,
		URL:       e.URL,
		Timeout:   time.Duration(e.Timeout) * time.Second,
		Disabled:  e.Disabled,
		Retry:     e.Retry.toPolicy(),
		Breaker:   e.CircuitBreaker.toPolicy(),
	}
}

// ToServerConfigs converts the whole file to the runtime configuration map
// handed to Manager.Initialize.
func (c *GlobalConfig) ToServerConfigs() map[string]ServerConfig {
	configs := make(map[string]ServerConfig, len(c.Servers))
	for name, entry := range c.Servers {
		configs[name] = entry.ToServerConfig(name)
	}
	return configs
}

// ValidateServerName validates a tool-server name.
func ValidateServerName(name string) error {
	if name == "" {
		return fmt.Errorf("server name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("server name exceeds 64 character limit")
	}
	if !ServerNameRegex.MatchString(name) {
		return fmt.Errorf("invalid server name: must start with a letter and contain only letters, numbers, hyphens, and underscores")
	}
	return nil
}

// shellInjectionPatterns are patterns that could indicate shell injection
// attempts.
var shellInjectionPatterns = []string{
	";", "&&", "||", "|", "`", "$(", "\n", "\r",
}

// ValidateArg validates a command argument for shell injection.
func ValidateArg(arg string) error {
	for _, pattern := range shellInjectionPatterns {
		if strings.Contains(arg, pattern) {
			return fmt.Errorf("argument contains potentially unsafe pattern %q", pattern)
		}
	}
	return nil
}

var envKeyRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateEnv validates an environment override.
func ValidateEnv(key, value string) error {
	if key == "" {
		return fmt.Errorf("environment variable key is required")
	}
	if !envKeyRegex.MatchString(key) {
		return fmt.Errorf("invalid environment variable key: %s", key)
	}

	// ${VAR} is allowed for variable substitution; everything else on the
	// injection list is not.
	for _, pattern := range shellInjectionPatterns {
		if strings.Contains(value, pattern) {
			return fmt.Errorf("environment value contains potentially unsafe pattern %q", pattern)
		}
	}

	return nil
}

// sensitiveKeyPatterns are patterns that indicate a sensitive value.
var sensitiveKeyPatterns = []string{
	"SECRET", "TOKEN", "KEY", "PASSWORD", "CREDENTIAL", "AUTH", "API_KEY",
}

// IsSensitiveEnvKey returns true if the key appears to contain sensitive
// data.
func IsSensitiveEnvKey(key string) bool {
	upperKey := strings.ToUpper(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(upperKey, pattern) {
			return true
		}
	}
	return false
}

// RedactEnv redacts sensitive values from an environment override map.
func RedactEnv(envs map[string]string) map[string]string {
	result := make(map[string]string, len(envs))
	for key, value := range envs {
		if IsSensitiveEnvKey(key) {
			result[key] = "***REDACTED***"
		} else {
			result[key] = value
		}
	}
	return result
}
