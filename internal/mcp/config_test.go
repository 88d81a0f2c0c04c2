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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadGlobalConfigFile_Missing(t *testing.T) {
	cfg, err := LoadGlobalConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Empty(t, cfg.Servers)
}

func TestLoadGlobalConfigFile_Full(t *testing.T) {
	path := writeConfig(t, `
defaults:
  timeout: 45
  retry:
    max_retries: 2
    base_delay_ms: 500
servers:
  files:
    command: npx
    args: ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
    env:
      API_TOKEN: secret123
  web:
    transport: stream
    url: http://localhost:8931/mcp
    timeout: 10
    circuit_breaker:
      failure_threshold: 3
      reset_timeout_ms: 5000
  legacy:
    command: python
    disabled: true
`)

	cfg, err := LoadGlobalConfigFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Servers, 3)

	configs := cfg.ToServerConfigs()

	files := configs["files"]
	require.Equal(t, TransportStdio, files.Transport)
	require.Equal(t, "npx", files.Command)
	require.Equal(t, 45*time.Second, files.Timeout)
	require.Equal(t, 2, files.Retry.MaxRetries)
	require.Equal(t, 500*time.Millisecond, files.Retry.BaseDelay)
	// Unset retry fields fall back to the defaults.
	require.Equal(t, 2.0, files.Retry.Multiplier)
	require.Equal(t, 30*time.Second, files.Retry.MaxDelay)

	web := configs["web"]
	require.Equal(t, TransportStream, web.Transport)
	require.Equal(t, "http://localhost:8931/mcp", web.URL)
	require.Equal(t, 10*time.Second, web.Timeout)
	require.Equal(t, 3, web.Breaker.FailureThreshold)
	require.Equal(t, 5*time.Second, web.Breaker.ResetTimeout)

	require.True(t, configs["legacy"].Disabled)
}

func TestLoadGlobalConfigFile_Malformed(t *testing.T) {
	path := writeConfig(t, "servers: [not a map")
	_, err := LoadGlobalConfigFile(path)
	require.Error(t, err)
}

func TestServerEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   ServerEntry
		wantErr string
	}{
		{
			name:  "valid stdio",
			entry: ServerEntry{Command: "echo"},
		},
		{
			name:  "valid stream",
			entry: ServerEntry{Transport: "stream", URL: "http://localhost:1234"},
		},
		{
			name:    "stdio missing command",
			entry:   ServerEntry{Transport: "stdio"},
			wantErr: "command is required",
		},
		{
			name:    "stream missing url",
			entry:   ServerEntry{Transport: "stream"},
			wantErr: "url is required",
		},
		{
			name:    "unknown transport",
			entry:   ServerEntry{Transport: "carrier-pigeon", Command: "echo"},
			wantErr: "invalid transport",
		},
		{
			name:    "negative timeout",
			entry:   ServerEntry{Command: "echo", Timeout: -1},
			wantErr: "timeout must be non-negative",
		},
		{
			name:    "shell injection in args",
			entry:   ServerEntry{Command: "echo", Args: []string{"hello; rm -rf /"}},
			wantErr: "unsafe pattern",
		},
		{
			name:    "shell injection in env",
			entry:   ServerEntry{Command: "echo", Env: map[string]string{"X": "$(whoami)"}},
			wantErr: "unsafe pattern",
		},
		{
			name:    "bad env key",
			entry:   ServerEntry{Command: "echo", Env: map[string]string{"9BAD": "v"}},
			wantErr: "invalid environment variable key",
		},
		{
			name:    "bad retry multiplier",
			entry:   ServerEntry{Command: "echo", Retry: &RetryEntry{Multiplier: -1}},
			wantErr: "retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateServerName(t *testing.T) {
	require.NoError(t, ValidateServerName("files"))
	require.NoError(t, ValidateServerName("my-server_2"))

	require.Error(t, ValidateServerName(""))
	require.Error(t, ValidateServerName("9starts-with-digit"))
	require.Error(t, ValidateServerName("has space"))
	require.Error(t, ValidateServerName("has/slash"))

	long := "a"
	for len(long) < 65 {
		long += "a"
	}
	require.Error(t, ValidateServerName(long))
}

func TestRedactEnv(t *testing.T) {
	redacted := RedactEnv(map[string]string{
		"API_TOKEN":   "secret",
		"MY_PASSWORD": "hunter2",
		"PLAIN":       "visible",
	})

	require.Equal(t, "***REDACTED***", redacted["API_TOKEN"])
	require.Equal(t, "***REDACTED***", redacted["MY_PASSWORD"])
	require.Equal(t, "visible", redacted["PLAIN"])
}

func TestIsSensitiveEnvKey(t *testing.T) {
	require.True(t, IsSensitiveEnvKey("GITHUB_TOKEN"))
	require.True(t, IsSensitiveEnvKey("db_password"))
	require.True(t, IsSensitiveEnvKey("AWS_SECRET_ACCESS_KEY"))
	require.False(t, IsSensitiveEnvKey("HOME"))
	require.False(t, IsSensitiveEnvKey("PATH"))
}
