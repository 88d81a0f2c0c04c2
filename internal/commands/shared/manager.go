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

package shared

import (
	"context"
	"fmt"

	"github.com/foremanhq/foreman/internal/config"
	"github.com/foremanhq/foreman/internal/log"
	"github.com/foremanhq/foreman/internal/mcp"
)

// ResolveConfigPath returns the servers config path, honoring --config.
func ResolveConfigPath() (string, error) {
	if path := GetConfigPath(); path != "" {
		return path, nil
	}
	return config.ServersConfigPath()
}

// LoadServerConfigs loads and validates the servers configuration file.
func LoadServerConfigs() (map[string]mcp.ServerConfig, error) {
	path, err := ResolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := mcp.LoadGlobalConfigFile(path)
	if err != nil {
		return nil, NewExitError(ExitConfigInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewExitError(ExitConfigInvalid, fmt.Errorf("invalid configuration in %s: %w", path, err))
	}

	return cfg.ToServerConfigs(), nil
}

// BuildManager loads the configuration, creates a manager, and connects all
// enabled servers. The caller owns the manager and must Close it.
func BuildManager(ctx context.Context) (*mcp.Manager, error) {
	configs, err := LoadServerConfigs()
	if err != nil {
		return nil, err
	}

	logCfg := log.FromEnv()
	if GetVerbose() {
		logCfg.Level = "debug"
	} else if GetQuiet() {
		logCfg.Level = "error"
	}

	mgr := mcp.NewManager(mcp.ManagerConfig{
		Logger: log.New(logCfg),
	})
	mgr.Initialize(ctx, configs)

	return mgr, nil
}
