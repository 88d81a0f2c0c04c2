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

package serve

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foremanhq/foreman/internal/mcp"
	mcptesting "github.com/foremanhq/foreman/internal/mcp/testing"
)

func newAPIManager(t *testing.T) (*mcp.Manager, *mcptesting.MockDialer) {
	t.Helper()

	dialer := mcptesting.NewMockDialer()
	dialer.AddServer("files", []mcp.ToolDefinition{
		{Name: "read", Description: "read a file"},
		{Name: "write", Description: "write a file"},
	})

	mgr := mcp.NewManager(mcp.ManagerConfig{Dial: dialer.Dial})
	t.Cleanup(func() { _ = mgr.Close() })

	require.NoError(t, mgr.Connect(context.Background(), "files", mcp.ServerConfig{
		Name:      "files",
		Transport: mcp.TransportStdio,
		Command:   "echo",
		Retry:     mcp.RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: time.Millisecond},
		Breaker:   mcp.CircuitBreakerPolicy{FailureThreshold: 1, ResetTimeout: time.Minute},
	}))

	return mgr, dialer
}

func TestAPI_Healthz(t *testing.T) {
	mgr, _ := newAPIManager(t)
	router := newRouter(mgr)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_ListServers(t *testing.T) {
	mgr, _ := newAPIManager(t)
	router := newRouter(mgr)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/servers", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]mcp.ServerStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	require.True(t, body["files"].Connected)
	require.Equal(t, 2, body["files"].ToolCount)
}

func TestAPI_ServerStatus_NotFound(t *testing.T) {
	mgr, _ := newAPIManager(t)
	router := newRouter(mgr)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/servers/ghost", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "unknown_server", body.Error.Code)
}

func TestAPI_CallTool(t *testing.T) {
	mgr, _ := newAPIManager(t)
	router := newRouter(mgr)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/servers/files/calls",
		strings.NewReader(`{"tool": "read", "arguments": {"path": "/tmp/x"}}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp mcp.ToolCallResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.IsError)
	require.NotEmpty(t, resp.Content)
}

func TestAPI_CallTool_MissingTool(t *testing.T) {
	mgr, _ := newAPIManager(t)
	router := newRouter(mgr)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/servers/files/calls",
		strings.NewReader(`{"arguments": {}}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_CallTool_CircuitOpen(t *testing.T) {
	mgr, dialer := newAPIManager(t)
	dialer.Client("files").SetCallHandler(func(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error) {
		return nil, errors.New("down")
	})
	router := newRouter(mgr)

	// First call trips the threshold-1 breaker.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/servers/files/calls",
		strings.NewReader(`{"tool": "read"}`)))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	// Second call is rejected by the open breaker.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/servers/files/calls",
		strings.NewReader(`{"tool": "read"}`)))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestAPI_ResetBreaker(t *testing.T) {
	mgr, dialer := newAPIManager(t)
	dialer.Client("files").SetCallHandler(func(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error) {
		return nil, errors.New("down")
	})
	router := newRouter(mgr)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/servers/files/calls",
		strings.NewReader(`{"tool": "read"}`)))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/breakers/files/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var breakers map[string]mcp.BreakerStats
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/breakers", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &breakers))
	require.Equal(t, mcp.BreakerClosed, breakers["files"].State)
}

func TestAPI_Reconnect(t *testing.T) {
	mgr, _ := newAPIManager(t)
	router := newRouter(mgr)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/servers/files/reconnect", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	status := mgr.GetServerStatus()
	require.True(t, status["files"].Connected)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/servers/ghost/reconnect", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ListTools(t *testing.T) {
	mgr, _ := newAPIManager(t)
	router := newRouter(mgr)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tools", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var tools []mcp.ToolDescriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tools))
	require.Len(t, tools, 2)
	require.Equal(t, "files", tools[0].Server)
}
