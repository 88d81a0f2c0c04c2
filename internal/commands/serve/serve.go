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

// Package serve implements the 'foreman serve' command: a long-running
// process that keeps tool-server sessions alive, exposes a status and
// call API over HTTP, and reloads the configuration when it changes.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foremanhq/foreman/internal/commands/shared"
	"github.com/foremanhq/foreman/internal/log"
	"github.com/foremanhq/foreman/internal/mcp"
)

// NewCommand creates the 'serve' command.
func NewCommand() *cobra.Command {
	var (
		addr    string
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the connection manager as a long-lived service",
		Long: `Connect all configured servers and keep the sessions alive,
exposing an HTTP API for status, tool listing, and tool calls, plus
Prometheus metrics on /metrics.

The servers.yaml file is watched for changes and applied without a
restart.

Examples:
  foreman serve
  foreman serve --addr 127.0.0.1:7646
  foreman serve --no-watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, noWatch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7646", "Listen address for the HTTP API")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable config file watching")

	return cmd
}

func runServe(parent context.Context, addr string, noWatch bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCfg := log.FromEnv()
	if shared.GetVerbose() {
		logCfg.Level = "debug"
	}
	logger := log.New(logCfg)

	mgr, err := shared.BuildManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if !noWatch {
		path, err := shared.ResolveConfigPath()
		if err != nil {
			return err
		}
		watcher, err := mcp.NewConfigWatcher(mcp.ConfigWatcherConfig{
			Path:   path,
			Logger: logger,
			OnChange: func() {
				configs, err := shared.LoadServerConfigs()
				if err != nil {
					logger.Error("config reload failed", log.Error(err))
					return
				}
				mgr.Reload(context.Background(), configs)
			},
		})
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		defer watcher.Close()
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           newRouter(mgr),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http api listening", "addr", addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown error", log.Error(err))
		}
	}

	return nil
}
