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
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foremanhq/foreman/internal/mcp"
	pkgerrors "github.com/foremanhq/foreman/pkg/errors"
)

// newRouter builds the HTTP API for a running manager.
func newRouter(mgr *mcp.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/servers", handleListServers(mgr))
		r.Get("/servers/{name}", handleServerStatus(mgr))
		r.Post("/servers/{name}/calls", handleCallTool(mgr))
		r.Post("/servers/{name}/reconnect", handleReconnect(mgr))
		r.Get("/breakers", handleListBreakers(mgr))
		r.Post("/breakers/{name}/reset", handleResetBreaker(mgr))
		r.Get("/tools", handleListTools(mgr))
	})

	return r
}

func handleListServers(mgr *mcp.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, mgr.GetServerStatus())
	}
}

func handleServerStatus(mgr *mcp.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		status, ok := mgr.GetServerStatus()[name]
		if !ok {
			writeError(w, &mcp.UnknownServerError{Server: name})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":            name,
			"connected":       status.Connected,
			"tool_count":      status.ToolCount,
			"tools":           status.Tools,
			"circuit_breaker": mgr.GetCircuitBreakerStats()[name],
		})
	}
}

func handleListBreakers(mgr *mcp.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, mgr.GetCircuitBreakerStats())
	}
}

func handleResetBreaker(mgr *mcp.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !mgr.ResetCircuitBreaker(name) {
			writeError(w, &mcp.UnknownServerError{Server: name})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"server": name,
			"reset":  true,
		})
	}
}

func handleReconnect(mgr *mcp.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := mgr.Reconnect(r.Context(), name); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"server":      name,
			"reconnected": true,
		})
	}
}

func handleListTools(mgr *mcp.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, mgr.GetAllAvailableTools())
	}
}

// callRequest is the POST body for a tool call.
type callRequest struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

func handleCallTool(mgr *mcp.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var req callRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid_request", "invalid JSON body", ""))
			return
		}
		if req.Tool == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid_request", "tool is required", ""))
			return
		}

		resp, err := mgr.CallTool(r.Context(), name, mcp.ToolCallRequest{
			Name:      req.Tool,
			Arguments: req.Arguments,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// writeError maps manager errors onto HTTP status codes and a structured
// error body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var unknownErr *mcp.UnknownServerError
	var notConnErr *mcp.NotConnectedError
	var openErr *mcp.CircuitOpenError
	var cfgErr *mcp.ConfigurationError
	var callErr *mcp.ToolCallError

	switch {
	case errors.As(err, &unknownErr):
		status = http.StatusNotFound
	case errors.As(err, &notConnErr):
		status = http.StatusConflict
	case errors.As(err, &openErr):
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", openErr.RetryIn.Round(time.Second).String())
	case errors.As(err, &cfgErr):
		status = http.StatusBadRequest
	case errors.As(err, &callErr):
		status = http.StatusBadGateway
	}

	code := "internal"
	message := err.Error()
	suggestion := ""

	var classifier pkgerrors.ErrorClassifier
	if errors.As(err, &classifier) {
		code = classifier.ErrorType()
	}
	var visible pkgerrors.UserVisibleError
	if errors.As(err, &visible) && visible.IsUserVisible() {
		message = visible.UserMessage()
		suggestion = visible.Suggestion()
	}

	writeJSON(w, status, errorBody(code, message, suggestion))
}

func errorBody(code, message, suggestion string) map[string]interface{} {
	inner := map[string]string{
		"code":    code,
		"message": message,
	}
	if suggestion != "" {
		inner["suggestion"] = suggestion
	}
	return map[string]interface{}{"error": inner}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
