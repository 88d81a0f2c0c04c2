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
	"errors"
	"fmt"
	"os"

	pkgerrors "github.com/foremanhq/foreman/pkg/errors"
)

// Exit codes for the foreman CLI.
const (
	// ExitOK indicates success.
	ExitOK = 0
	// ExitExecutionFailed indicates a tool call or operation failed.
	ExitExecutionFailed = 1
	// ExitConfigInvalid indicates a configuration problem.
	ExitConfigInvalid = 2
	// ExitServerUnknown indicates the named server is not registered.
	ExitServerUnknown = 3
	// ExitCircuitOpen indicates the call was rejected by an open breaker.
	ExitCircuitOpen = 4
)

// ExitError carries a specific exit code alongside the error message.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError wraps an error with an exit code.
func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// HandleExitError prints the error with any user-facing suggestion and
// exits with the appropriate code. A nil error is a no-op.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	code := ExitExecutionFailed
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}

	fmt.Fprintln(os.Stderr, RenderError(err.Error()))
	printUserVisibleSuggestion(err)

	os.Exit(code)
}

// printUserVisibleSuggestion walks the error chain for a UserVisibleError
// and prints its suggestion if one is available.
func printUserVisibleSuggestion(err error) {
	for err != nil {
		if userErr, ok := err.(pkgerrors.UserVisibleError); ok {
			if userErr.IsUserVisible() {
				if suggestion := userErr.Suggestion(); suggestion != "" {
					fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", suggestion)
				}
			}
			return
		}
		err = errors.Unwrap(err)
	}
}
