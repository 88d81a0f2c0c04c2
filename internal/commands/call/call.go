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

// Package call implements the 'foreman call' command.
package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foremanhq/foreman/internal/commands/shared"
	"github.com/foremanhq/foreman/internal/condition"
	"github.com/foremanhq/foreman/internal/mcp"
)

// NewCommand creates the 'call' command.
func NewCommand() *cobra.Command {
	var (
		argsJSON string
		ifExpr   string
	)

	cmd := &cobra.Command{
		Use:   "call <server> <tool>",
		Short: "Invoke a tool on a connected server",
		Long: `Invoke a tool on a connected server, with retry and circuit breaker
protection applied automatically.

The --if flag takes a boolean gate expression evaluated against the
call context (server, tool, arguments) before the call is made; if it
evaluates to false the call is skipped.

Examples:
  foreman call files read_file --args '{"path": "/tmp/notes.txt"}'
  foreman call web fetch --args '{"url": "https://example.com"}' --json
  foreman call files write_file --args '{"path": "/tmp/x"}' --if 'has(arguments, "path")'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd.Context(), args[0], args[1], argsJSON, ifExpr)
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "{}", "Tool arguments as a JSON object")
	cmd.Flags().StringVar(&ifExpr, "if", "", "Gate expression; the call is skipped unless it evaluates to true")

	return cmd
}

func runCall(ctx context.Context, server, tool, argsJSON, ifExpr string) error {
	var arguments map[string]interface{}
	if err := json.Unmarshal([]byte(argsJSON), &arguments); err != nil {
		return shared.NewExitError(shared.ExitConfigInvalid,
			fmt.Errorf("invalid --args JSON: %w", err))
	}

	if ifExpr != "" {
		allowed, err := condition.New().Evaluate(ifExpr, map[string]interface{}{
			"server":    server,
			"tool":      tool,
			"arguments": arguments,
		})
		if err != nil {
			return shared.NewExitError(shared.ExitConfigInvalid, err)
		}
		if !allowed {
			if shared.GetJSON() {
				return shared.EmitJSON(map[string]interface{}{
					"skipped": true,
					"reason":  "gate expression evaluated to false",
				})
			}
			fmt.Println(shared.RenderWarn("call skipped: gate expression evaluated to false"))
			return nil
		}
	}

	mgr, err := shared.BuildManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	resp, err := mgr.CallTool(ctx, server, mcp.ToolCallRequest{
		Name:      tool,
		Arguments: arguments,
	})
	if err != nil {
		return exitErrorFor(err)
	}

	if shared.GetJSON() {
		return shared.EmitJSON(resp)
	}

	if resp.IsError {
		fmt.Println(shared.RenderWarn("tool reported an error"))
	}
	for _, item := range resp.Content {
		switch item.Type {
		case "text":
			fmt.Println(item.Text)
		case "image":
			fmt.Println(shared.Muted.Render(fmt.Sprintf("[image %s, %d bytes base64]", item.MimeType, len(item.Data))))
		default:
			fmt.Println(shared.Muted.Render(fmt.Sprintf("[%s content]", item.Type)))
		}
	}

	return nil
}

// exitErrorFor maps manager errors to CLI exit codes.
func exitErrorFor(err error) error {
	var unknownErr *mcp.UnknownServerError
	if errors.As(err, &unknownErr) {
		return shared.NewExitError(shared.ExitServerUnknown, err)
	}

	var openErr *mcp.CircuitOpenError
	if errors.As(err, &openErr) {
		return shared.NewExitError(shared.ExitCircuitOpen, err)
	}

	return shared.NewExitError(shared.ExitExecutionFailed, err)
}
