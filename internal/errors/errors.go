// Package errors provides the user-facing error types shared across
// envsync. Package-local failure types (parse, corruption, remote, hash)
// live next to the code that produces them; these types carry the
// suggestion-driven presentation.
package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with
// helpful context. Message and Details must already be free of secret
// material; callers report metadata (key name, file, length), never values.
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError represents an external command execution error.
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// RemoteSuggestion returns a helpful next step for a gh CLI failure, based
// on the (already scrubbed) error text.
func RemoteSuggestion(errText string) string {
	lower := strings.ToLower(errText)

	switch {
	case strings.Contains(lower, "not logged in") || strings.Contains(lower, "authentication"):
		return "Run 'gh auth login' to authenticate with GitHub"
	case strings.Contains(lower, "could not resolve") || strings.Contains(lower, "404"):
		return "Check the repo setting in envsync.yaml points at an existing repository you can access"
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden"):
		return "Your token needs admin access to repository secrets. Check 'gh auth status'"
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return "The gh CLI did not respond in time. Check your network or raise remote.timeout_ms"
	case strings.Contains(lower, "executable file not found") || strings.Contains(lower, "command not found"):
		return "Install the GitHub CLI: https://cli.github.com/"
	case strings.Contains(lower, "rate limit"):
		return "GitHub rate limit exceeded. Wait a moment and try again"
	}

	return ""
}
