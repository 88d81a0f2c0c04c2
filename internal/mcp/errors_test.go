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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	foremanerrors "github.com/foremanhq/foreman/pkg/errors"
)

func TestErrors_ImplementClassifierInterfaces(t *testing.T) {
	cause := errors.New("boom")

	errs := []error{
		&ConfigurationError{Server: "s", Reason: "bad"},
		&ConnectionError{Server: "s", Cause: cause},
		&UnknownServerError{Server: "s"},
		&NotConnectedError{Server: "s"},
		&CircuitOpenError{Server: "s", RetryIn: time.Second},
		&ToolCallError{Server: "s", Tool: "t", Attempts: 2, Cause: cause},
	}

	for _, err := range errs {
		var visible foremanerrors.UserVisibleError
		require.ErrorAs(t, err, &visible, "%T should be user visible", err)
		require.True(t, visible.IsUserVisible())
		require.NotEmpty(t, visible.UserMessage())
		require.NotEmpty(t, visible.Suggestion())

		var classifier foremanerrors.ErrorClassifier
		require.ErrorAs(t, err, &classifier, "%T should be classifiable", err)
		require.NotEmpty(t, classifier.ErrorType())
	}
}

func TestErrors_Retryability(t *testing.T) {
	require.False(t, (&ConfigurationError{}).IsRetryable())
	require.False(t, (&UnknownServerError{}).IsRetryable())
	require.False(t, (&CircuitOpenError{}).IsRetryable())
	require.True(t, (&ConnectionError{}).IsRetryable())
	require.True(t, (&NotConnectedError{}).IsRetryable())
	require.True(t, (&ToolCallError{}).IsRetryable())
}

func TestConnectionError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &ConnectionError{Server: "web", Cause: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "web")
}

func TestToolCallError_Unwrap(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := &ToolCallError{Server: "web", Tool: "fetch", Attempts: 4, Cause: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "fetch")
	require.Contains(t, err.Error(), "4")
}

func TestCircuitOpenError_Message(t *testing.T) {
	err := &CircuitOpenError{Server: "web", RetryIn: 42 * time.Second}
	require.Contains(t, err.Error(), "web")
	require.Contains(t, err.UserMessage(), "42")
}
