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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher monitors the servers.yaml configuration file and invokes a
// callback when it changes. Editors typically replace the file rather than
// writing it in place, so the watch is placed on the containing directory
// and events are filtered to the config path.
type ConfigWatcher struct {
	// fsWatcher is the underlying filesystem watcher
	fsWatcher *fsnotify.Watcher

	// path is the absolute config file path being watched
	path string

	// onChange is invoked after the debounce window closes
	onChange func()

	// logger is used for structured logging
	logger *slog.Logger

	// debounceDelay coalesces bursts of write events into one callback
	debounceDelay time.Duration

	// pending is the active debounce timer, if any
	pending *time.Timer

	// mu protects pending
	mu sync.Mutex

	// ctx is the watcher's lifecycle context
	ctx context.Context

	// cancel stops the watcher
	cancel context.CancelFunc

	// wg tracks the event loop
	wg sync.WaitGroup
}

// ConfigWatcherConfig configures the config file watcher.
type ConfigWatcherConfig struct {
	// Path is the config file to watch
	Path string

	// OnChange is invoked when the file changes, after debouncing
	OnChange func()

	// Logger is used for structured logging (optional)
	Logger *slog.Logger

	// DebounceDelay coalesces rapid successive writes (defaults to 200ms)
	DebounceDelay time.Duration
}

// NewConfigWatcher creates and starts a watcher on the config file's
// directory.
func NewConfigWatcher(cfg ConfigWatcherConfig) (*ConfigWatcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}

	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", cfg.Path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", filepath.Dir(absPath), err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounceDelay := cfg.DebounceDelay
	if debounceDelay == 0 {
		debounceDelay = 200 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &ConfigWatcher{
		fsWatcher:     fsWatcher,
		path:          absPath,
		onChange:      cfg.OnChange,
		logger:        logger,
		debounceDelay: debounceDelay,
		ctx:           ctx,
		cancel:        cancel,
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// processEvents filters filesystem events down to the config file and
// schedules debounced callbacks.
func (w *ConfigWatcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.matchesConfig(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("config file changed", "file", event.Name, "op", event.Op.String())
				w.scheduleCallback()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)

		case <-w.ctx.Done():
			return
		}
	}
}

// matchesConfig reports whether an event path refers to the watched file.
func (w *ConfigWatcher) matchesConfig(eventPath string) bool {
	abs, err := filepath.Abs(eventPath)
	if err != nil {
		return false
	}
	return abs == w.path
}

// scheduleCallback resets the debounce timer so that a burst of writes
// produces a single callback.
func (w *ConfigWatcher) scheduleCallback() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}

	w.pending = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		w.pending = nil
		w.mu.Unlock()

		w.logger.Info("reloading configuration after change", "file", w.path)
		w.onChange()
	})
}

// Close shuts down the watcher and cancels any pending callback.
func (w *ConfigWatcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.mu.Unlock()

	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}
