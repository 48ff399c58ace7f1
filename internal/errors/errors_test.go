package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrConnection,
		ErrAuth,
		ErrCommand,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "connection error",
			code:       ErrConnection,
			message:    "Server is unreachable",
			suggestion: "Check the host is online",
		},
		{
			name:       "auth error",
			code:       ErrAuth,
			message:    "Unable to authenticate with the server using plain password",
			suggestion: "Check the username and password",
		},
		{
			name:       "command error",
			code:       ErrCommand,
			message:    "Unable to process command on the remote server",
			suggestion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "message and suggestion",
			err:           New(ErrConfig, "Invalid configuration", "Check .frampt.yaml syntax"),
			expectedParts: []string{"✗", "Invalid configuration", "Check .frampt.yaml syntax"},
		},
		{
			name:          "with cause",
			err:           WrapWithCode(errors.New("dial tcp: i/o timeout"), ErrConnection, "Server is unreachable", ""),
			expectedParts: []string{"Server is unreachable", "i/o timeout"},
		},
		{
			name:          "no suggestion",
			err:           New(ErrCommand, "Command failed", ""),
			expectedParts: []string{"Command failed"},
			notExpected:   []string{"\n\n  \n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()

			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("connection refused"),
		ErrConnection,
		"Unable to connect to server",
		"Is sshd running?",
	)

	lines := strings.Split(err.Error(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "✗"))
	assert.Contains(t, lines[0], "Unable to connect to server")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := WrapWithCode(cause, ErrCommand, "Execution failed", "")

	assert.Equal(t, cause, wrapped.Unwrap())
	assert.True(t, errors.Is(wrapped, cause))
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrConnection))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestIsCode_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("running deploy: %w", New(ErrAuth, "rejected", ""))

	assert.True(t, IsAuth(err))
	assert.False(t, IsConnection(err))
	assert.False(t, IsCommand(err))
}

func TestKindHelpers(t *testing.T) {
	assert.True(t, IsConnection(New(ErrConnection, "x", "")))
	assert.True(t, IsAuth(New(ErrAuth, "x", "")))
	assert.True(t, IsCommand(New(ErrCommand, "x", "")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "", MessageOf(nil))
	assert.Equal(t, "Server is unreachable", MessageOf(New(ErrConnection, "Server is unreachable", "hint")))
	assert.Equal(t, "plain", MessageOf(errors.New("plain")))
}
