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

package errors

import (
	"errors"
	"testing"
	"time"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "with field",
			err:  &ValidationError{Field: "transport", Message: "must be stdio or stream"},
			want: "validation failed on transport: must be stdio or stream",
		},
		{
			name: "without field",
			err:  &ValidationError{Message: "empty config"},
			want: "validation failed: empty config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Resource: "server", ID: "github"}
	want := "server not found: github"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	cause := errors.New("yaml: line 3: mapping values are not allowed")
	err := &ConfigError{Key: "servers.github", Reason: "parse failure", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Operation: "tool call", Duration: 30 * time.Second}
	want := "tool call timed out after 30s"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	base := New("base failure")
	wrapped := Wrap(base, "doing work")
	if !Is(wrapped, base) {
		t.Error("wrapped error should match base via Is")
	}
	if wrapped.Error() != "doing work: base failure" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}
