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
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Client wraps an established MCP server connection.
type Client struct {
	// serverName is the unique identifier for this MCP server
	serverName string

	// client is the underlying MCP protocol client
	client *client.Client

	// timeout is the default timeout for tool calls
	timeout time.Duration
}

// dialServer constructs the transport for a server config, opens it, and
// performs the MCP initialize handshake. The returned client is ready for
// tool discovery and invocation.
func dialServer(ctx context.Context, cfg ServerConfig) (ClientProvider, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	mcpClient, err := transport.Connect(ctx)
	if err != nil {
		return nil, &ConnectionError{Server: cfg.Name, Cause: err}
	}

	c := &Client{
		serverName: cfg.Name,
		client:     mcpClient,
		timeout:    timeout,
	}

	if err := c.initialize(ctx); err != nil {
		_ = c.Close()
		return nil, &ConnectionError{Server: cfg.Name, Cause: err}
	}

	return c, nil
}

// initialize sends the initialize request to the MCP server.
func (c *Client) initialize(ctx context.Context) error {
	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{
				// Minimal capabilities for tool usage
			},
			ClientInfo: mcp.Implementation{
				Name:    "foreman",
				Version: "0.1.0",
			},
		},
	}

	if _, err := c.client.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("initialize request failed: %w", err)
	}

	return nil
}

// ServerName returns the unique identifier for this server.
func (c *Client) ServerName() string {
	return c.serverName
}

// ListTools retrieves the list of available tools from the MCP server.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	tools := make([]ToolDefinition, len(result.Tools))
	for i, tool := range result.Tools {
		schemaBytes, err := extractInputSchema(tool)
		if err != nil {
			return nil, err
		}
		tools[i] = ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schemaBytes,
		}
	}

	return tools, nil
}

// extractInputSchema returns the tool's input schema as raw JSON.
// Uses RawInputSchema when the server sent one, otherwise re-marshals the
// parsed schema.
func extractInputSchema(tool mcp.Tool) ([]byte, error) {
	if len(tool.RawInputSchema) > 0 {
		return tool.RawInputSchema, nil
	}

	toolBytes, err := tool.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool %s: %w", tool.Name, err)
	}

	var toolMap map[string]interface{}
	if err := json.Unmarshal(toolBytes, &toolMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool %s: %w", tool.Name, err)
	}

	inputSchema, ok := toolMap["inputSchema"]
	if !ok {
		return nil, nil
	}

	schemaBytes, err := json.Marshal(inputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema for %s: %w", tool.Name, err)
	}
	return schemaBytes, nil
}

// CallTool executes an MCP tool with the given arguments. The session's
// per-call timeout applies; a call that exceeds it fails like any other
// transport error.
func (c *Client) CallTool(ctx context.Context, req ToolCallRequest) (*ToolCallResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	mcpReq := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      req.Name,
			Arguments: req.Arguments,
		},
	}

	result, err := c.client.CallTool(ctx, mcpReq)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	response := &ToolCallResponse{
		IsError: result.IsError,
		Content: make([]ContentItem, len(result.Content)),
	}

	for i, content := range result.Content {
		response.Content[i] = convertContent(content)
	}

	return response, nil
}

// convertContent maps an MCP content value to a ContentItem.
func convertContent(content mcp.Content) ContentItem {
	item := ContentItem{}

	if textContent, ok := mcp.AsTextContent(content); ok {
		item.Type = textContent.Type
		item.Text = textContent.Text
		return item
	}
	if imageContent, ok := mcp.AsImageContent(content); ok {
		item.Type = imageContent.Type
		item.Data = imageContent.Data
		item.MimeType = imageContent.MIMEType
		return item
	}

	// Fallback: round-trip through JSON to extract common fields.
	contentBytes, err := json.Marshal(content)
	if err != nil {
		return item
	}
	var contentMap map[string]interface{}
	if err := json.Unmarshal(contentBytes, &contentMap); err != nil {
		return item
	}

	if contentType, ok := contentMap["type"].(string); ok {
		item.Type = contentType
	}
	if text, ok := contentMap["text"].(string); ok {
		item.Text = text
	}
	if data, ok := contentMap["data"].(string); ok {
		item.Data = data
	}
	if mimeType, ok := contentMap["mimeType"].(string); ok {
		item.MimeType = mimeType
	}

	return item
}

// Ping checks if the server is still responsive.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close closes the connection to the MCP server. For stdio transports this
// stops the subprocess.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close MCP client: %w", err)
	}

	return nil
}
