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

// Package tools implements the 'foreman tools' command.
package tools

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foremanhq/foreman/internal/commands/shared"
)

// NewCommand creates the 'tools' command.
func NewCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List tools available across all connected servers",
		Long: `List every tool exposed by connected servers, tagged with the
server that provides it.

Examples:
  foreman tools
  foreman tools --server files
  foreman tools --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTools(cmd.Context(), server)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Only show tools from this server")

	return cmd
}

func runTools(ctx context.Context, server string) error {
	mgr, err := shared.BuildManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	all := mgr.GetAllAvailableTools()
	if server != "" {
		filtered := all[:0]
		for _, tool := range all {
			if tool.Server == server {
				filtered = append(filtered, tool)
			}
		}
		all = filtered
	}

	if shared.GetJSON() {
		return shared.EmitJSON(all)
	}

	if len(all) == 0 {
		fmt.Println(shared.Muted.Render("No tools available."))
		return nil
	}

	current := ""
	for _, tool := range all {
		if tool.Server != current {
			if current != "" {
				fmt.Println()
			}
			fmt.Println(shared.Header.Render(tool.Server))
			current = tool.Server
		}
		if tool.Description != "" {
			fmt.Printf("  %s %s\n", shared.Bold.Render(tool.Name), shared.Muted.Render(tool.Description))
		} else {
			fmt.Printf("  %s\n", shared.Bold.Render(tool.Name))
		}
	}

	return nil
}
