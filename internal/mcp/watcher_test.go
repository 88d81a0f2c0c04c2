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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewConfigWatcher_Validation(t *testing.T) {
	_, err := NewConfigWatcher(ConfigWatcherConfig{OnChange: func() {}})
	require.Error(t, err)

	_, err = NewConfigWatcher(ConfigWatcherConfig{Path: "/tmp/x.yaml"})
	require.Error(t, err)
}

func TestConfigWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers: {}\n"), 0o600))

	changed := make(chan struct{}, 1)
	w, err := NewConfigWatcher(ConfigWatcherConfig{
		Path:          path,
		DebounceDelay: 20 * time.Millisecond,
		OnChange: func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("servers: {a: {command: echo}}\n"), 0o600))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected change notification")
	}
}

func TestConfigWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers: {}\n"), 0o600))

	changed := make(chan struct{}, 1)
	w, err := NewConfigWatcher(ConfigWatcherConfig{
		Path:          path,
		DebounceDelay: 20 * time.Millisecond,
		OnChange: func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600))

	select {
	case <-changed:
		t.Fatal("sibling file change should not trigger callback")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConfigWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers: {}\n"), 0o600))

	calls := make(chan struct{}, 16)
	w, err := NewConfigWatcher(ConfigWatcherConfig{
		Path:          path,
		DebounceDelay: 100 * time.Millisecond,
		OnChange:      func() { calls <- struct{}{} },
	})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("servers: {}\n"), 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a single debounced notification")
	}

	select {
	case <-calls:
		t.Fatal("burst of writes should coalesce into one callback")
	case <-time.After(300 * time.Millisecond):
	}
}
