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

// Package breakers implements the 'foreman breakers' command group.
package breakers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/foremanhq/foreman/internal/commands/shared"
)

// NewCommand creates the 'breakers' command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakers",
		Short: "Inspect and reset circuit breakers",
		Long: `Inspect per-server circuit breaker state and force resets.

Examples:
  foreman breakers list
  foreman breakers reset files`,
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newResetCommand())

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show circuit breaker state for every server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context())
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <name>",
		Short: "Force a server's circuit breaker back to closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd.Context(), args[0])
		},
	}
}

func runList(ctx context.Context) error {
	mgr, err := shared.BuildManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	stats := mgr.GetCircuitBreakerStats()

	if shared.GetJSON() {
		return shared.EmitJSON(stats)
	}

	if len(stats) == 0 {
		fmt.Println(shared.Muted.Render("No servers connected."))
		return nil
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println(shared.Header.Render("Circuit Breakers"))
	fmt.Println()
	for _, name := range names {
		s := stats[name]
		line := fmt.Sprintf("%s  %s", shared.Bold.Render(name), shared.RenderBreakerState(string(s.State)))
		if s.FailureCount > 0 {
			line += shared.Muted.Render(fmt.Sprintf("  %d failures", s.FailureCount))
		}
		if !s.NextRetryTime.IsZero() {
			retryIn := time.Until(s.NextRetryTime).Round(time.Second)
			if retryIn > 0 {
				line += shared.Muted.Render(fmt.Sprintf("  retry in %s", retryIn))
			}
		}
		fmt.Println(line)
	}

	return nil
}

func runReset(ctx context.Context, name string) error {
	mgr, err := shared.BuildManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if !mgr.ResetCircuitBreaker(name) {
		return shared.NewExitError(shared.ExitServerUnknown,
			fmt.Errorf("server not connected: %s", name))
	}

	if shared.GetJSON() {
		return shared.EmitJSON(map[string]interface{}{
			"server": name,
			"reset":  true,
		})
	}

	fmt.Println(shared.RenderOK("circuit breaker reset: " + name))
	return nil
}
