package remote

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandExecutor abstracts running the remote store CLI so tests can mock
// it. Input is fed over stdin; secret values never appear in argv where
// other processes could read them.
type CommandExecutor interface {
	// Execute runs a command with the given context, stdin and arguments.
	// Returns stdout, stderr, and any error that occurred.
	Execute(ctx context.Context, stdin []byte, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// RealCommandExecutor executes actual commands using os/exec. This is the
// production implementation.
type RealCommandExecutor struct{}

// Execute runs an actual command. Context expiry kills the subprocess.
func (r *RealCommandExecutor) Execute(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// DefaultExecutor returns the standard production executor.
func DefaultExecutor() CommandExecutor {
	return &RealCommandExecutor{}
}
