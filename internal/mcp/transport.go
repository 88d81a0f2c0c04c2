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
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/mark3labs/mcp-go/client"
)

// TransportKind identifies how a session reaches its server.
type TransportKind string

const (
	// TransportStdio runs the server as a subprocess and speaks MCP over
	// its stdin/stdout pipes.
	TransportStdio TransportKind = "stdio"
	// TransportStream connects to a server over streamable HTTP.
	TransportStream TransportKind = "stream"
)

// Transport constructs and starts the underlying protocol client for one
// session. The session layer depends only on this capability, not on the
// transport kind.
type Transport interface {
	// Kind identifies the transport.
	Kind() TransportKind

	// Connect constructs the protocol client and starts its connection.
	// It does not perform the MCP initialize handshake.
	Connect(ctx context.Context) (*client.Client, error)
}

// newTransport builds the transport for a server config. Returns a
// ConfigurationError if a required field for the chosen kind is missing.
func newTransport(cfg ServerConfig) (Transport, error) {
	switch cfg.Transport {
	case TransportStdio, "":
		if cfg.Command == "" {
			return nil, &ConfigurationError{
				Server: cfg.Name,
				Field:  "command",
				Reason: "command is required for the stdio transport",
			}
		}
		return &stdioTransport{
			command: cfg.Command,
			args:    cfg.Args,
			env:     mergeEnv(cfg.Env),
		}, nil

	case TransportStream:
		if cfg.URL == "" {
			return nil, &ConfigurationError{
				Server: cfg.Name,
				Field:  "url",
				Reason: "url is required for the stream transport",
			}
		}
		if _, err := url.ParseRequestURI(cfg.URL); err != nil {
			return nil, &ConfigurationError{
				Server: cfg.Name,
				Field:  "url",
				Reason: fmt.Sprintf("invalid url: %v", err),
			}
		}
		return &streamTransport{url: cfg.URL}, nil

	default:
		return nil, &ConfigurationError{
			Server: cfg.Name,
			Field:  "transport",
			Reason: fmt.Sprintf("unsupported transport kind %q (must be %q or %q)", cfg.Transport, TransportStdio, TransportStream),
		}
	}
}

// stdioTransport spawns the server as a subprocess.
type stdioTransport struct {
	command string
	args    []string
	env     []string
}

// Kind returns TransportStdio.
func (t *stdioTransport) Kind() TransportKind { return TransportStdio }

// Connect spawns the subprocess and starts the stdio connection.
func (t *stdioTransport) Connect(ctx context.Context) (*client.Client, error) {
	mcpClient, err := client.NewStdioMCPClient(t.command, t.env, t.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdio client: %w", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("failed to start stdio client: %w", err)
	}

	return mcpClient, nil
}

// streamTransport connects over streamable HTTP.
type streamTransport struct {
	url string
}

// Kind returns TransportStream.
func (t *streamTransport) Kind() TransportKind { return TransportStream }

// Connect opens the streamable HTTP connection.
func (t *streamTransport) Connect(ctx context.Context) (*client.Client, error) {
	mcpClient, err := client.NewStreamableHttpClient(t.url)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream client: %w", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("failed to start stream client: %w", err)
	}

	return mcpClient, nil
}

// mergeEnv merges the current process environment with per-server overrides.
// Overrides win: exec uses the last occurrence of a duplicated key.
func mergeEnv(overrides map[string]string) []string {
	merged := os.Environ()

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		merged = append(merged, k+"="+overrides[k])
	}
	return merged
}
