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

// Package version implements the 'foreman version' command.
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foremanhq/foreman/internal/commands/shared"
)

// NewCommand creates the 'version' command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, c, b := shared.GetVersion()

			if shared.GetJSON() {
				return shared.EmitJSON(map[string]string{
					"version":    v,
					"commit":     c,
					"build_date": b,
				})
			}

			fmt.Printf("foreman %s (commit %s, built %s)\n", v, c, b)
			return nil
		},
	}
}
