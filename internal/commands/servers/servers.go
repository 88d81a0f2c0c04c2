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

// Package servers implements the 'foreman servers' command group.
package servers

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/foremanhq/foreman/internal/commands/shared"
)

// NewCommand creates the 'servers' command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Inspect configured tool servers",
		Long: `Inspect configured tool servers and their connection state.

Examples:
  foreman servers list
  foreman servers status files
  foreman servers status files --json`,
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newStatusCommand())

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all servers and their connection state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context())
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <name>",
		Short: "Show detailed status of one server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), args[0])
		},
	}
}

func runList(ctx context.Context) error {
	mgr, err := shared.BuildManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	status := mgr.GetServerStatus()

	if shared.GetJSON() {
		return shared.EmitJSON(status)
	}

	if len(status) == 0 {
		fmt.Println(shared.Muted.Render("No servers connected."))
		return nil
	}

	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println(shared.Header.Render("Tool Servers"))
	fmt.Println()
	for _, name := range names {
		s := status[name]
		if s.Connected {
			fmt.Printf("%s %s %s\n",
				shared.StatusOK.Render(shared.SymbolOK),
				shared.Bold.Render(name),
				shared.Muted.Render(fmt.Sprintf("(%d tools)", s.ToolCount)),
			)
		} else {
			fmt.Printf("%s %s %s\n",
				shared.StatusError.Render(shared.SymbolError),
				shared.Bold.Render(name),
				shared.Muted.Render("(disconnected)"),
			)
		}
	}

	return nil
}

func runStatus(ctx context.Context, name string) error {
	mgr, err := shared.BuildManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	status, ok := mgr.GetServerStatus()[name]
	if !ok {
		return shared.NewExitError(shared.ExitServerUnknown,
			fmt.Errorf("server not connected: %s", name))
	}

	breaker := mgr.GetCircuitBreakerStats()[name]

	if shared.GetJSON() {
		return shared.EmitJSON(map[string]interface{}{
			"name":            name,
			"connected":       status.Connected,
			"tool_count":      status.ToolCount,
			"tools":           status.Tools,
			"circuit_breaker": breaker,
		})
	}

	fmt.Println(shared.Header.Render("Server: " + name))
	fmt.Println()
	if status.Connected {
		fmt.Println(shared.RenderOK("connected"))
	} else {
		fmt.Println(shared.RenderError("disconnected"))
	}
	fmt.Printf("%s %s\n", shared.Muted.Render("breaker:"), shared.RenderBreakerState(string(breaker.State)))
	if breaker.FailureCount > 0 {
		fmt.Printf("%s %d\n", shared.Muted.Render("failures:"), breaker.FailureCount)
	}
	fmt.Printf("%s %d\n", shared.Muted.Render("tools:"), status.ToolCount)
	for _, tool := range status.Tools {
		fmt.Printf("  %s\n", tool)
	}

	return nil
}
