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
	"encoding/json"
)

// ToolDefinition represents an MCP tool definition as discovered from a
// server. Maps to the MCP protocol's Tool schema.
type ToolDefinition struct {
	// Name is the unique identifier for this tool
	Name string `json:"name"`

	// Description explains what the tool does
	Description string `json:"description"`

	// InputSchema defines the expected input parameters using JSON Schema.
	// Opaque to this package.
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolDescriptor is a ToolDefinition tagged with its originating server.
// This is the shape returned by Manager.GetAllAvailableTools.
type ToolDescriptor struct {
	// Server is the name of the server exposing this tool
	Server string `json:"server"`

	// Name is the unique identifier for this tool
	Name string `json:"name"`

	// Description explains what the tool does
	Description string `json:"description"`

	// InputSchema defines the expected input parameters using JSON Schema
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolCallRequest represents a request to execute an MCP tool.
type ToolCallRequest struct {
	// Name is the tool to execute
	Name string `json:"name"`

	// Arguments contains the input parameters for the tool
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolCallResponse represents the result of an MCP tool execution.
type ToolCallResponse struct {
	// Content contains the tool's output
	Content []ContentItem `json:"content"`

	// IsError indicates if the tool itself reported a failure. A response
	// with IsError set is still a successful protocol call: this package
	// does not interpret tool results, so it counts as a success for
	// retry and breaker purposes.
	IsError bool `json:"isError,omitempty"`
}

// ContentItem represents a piece of content in an MCP response.
type ContentItem struct {
	// Type is the content type (text, image, resource)
	Type string `json:"type"`

	// Text is the text content (for type="text")
	Text string `json:"text,omitempty"`

	// Data is the base64-encoded data (for type="image")
	Data string `json:"data,omitempty"`

	// MimeType is the MIME type for binary content
	MimeType string `json:"mimeType,omitempty"`
}

// ServerStatus is a read-only snapshot of one session's health.
type ServerStatus struct {
	// Connected reports whether the session is currently live
	Connected bool `json:"connected"`

	// ToolCount is the number of tools discovered at connect time
	ToolCount int `json:"tool_count"`

	// Tools lists the names of the discovered tools
	Tools []string `json:"tools"`
}
