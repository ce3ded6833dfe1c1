// Package remote talks to the remote secret store through the GitHub CLI.
// The gh binary is the only transport; there is no direct network protocol
// here and no retry — a failed call surfaces to the caller, which leaves the
// manifest untouched so the next run retries the same decision.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	synerrors "github.com/systmms/envsync/internal/errors"
	"github.com/systmms/envsync/internal/logging"
	"github.com/systmms/envsync/internal/secure"
)

// DefaultTimeout bounds each CLI invocation unless configured otherwise.
const DefaultTimeout = 30 * time.Second

// Snapshot is one secret as reported by the remote listing: its name and
// last-modified timestamp. The timestamp is treated as an opaque string;
// the engine only ever compares it for equality.
type Snapshot struct {
	Name      string `json:"name"`
	UpdatedAt string `json:"updatedAt"`
}

// Store is the remote secret store contract the reconciliation engine
// applies against.
type Store interface {
	// List returns a snapshot of every secret currently in the store.
	List(ctx context.Context) ([]Snapshot, error)

	// Set creates or updates one secret. The value is consumed from
	// protected memory and destroyed by the caller.
	Set(ctx context.Context, name string, value *secure.Value) error

	// Delete removes one secret.
	Delete(ctx context.Context, name string) error
}

// GitHubStore implements Store on top of the gh CLI's repository secret
// commands.
type GitHubStore struct {
	repo     string
	timeout  time.Duration
	executor CommandExecutor
	logger   *logging.Logger
}

// NewGitHubStore creates a store client for the given owner/name repo.
// A timeout of zero uses DefaultTimeout.
func NewGitHubStore(repo string, timeout time.Duration, logger *logging.Logger) *GitHubStore {
	return newGitHubStore(repo, timeout, logger, DefaultExecutor())
}

// NewGitHubStoreWithExecutor creates a store client with a custom executor.
// This is primarily for testing, allowing gh invocations to be mocked.
func NewGitHubStoreWithExecutor(repo string, timeout time.Duration, logger *logging.Logger, executor CommandExecutor) *GitHubStore {
	return newGitHubStore(repo, timeout, logger, executor)
}

func newGitHubStore(repo string, timeout time.Duration, logger *logging.Logger, executor CommandExecutor) *GitHubStore {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GitHubStore{
		repo:     repo,
		timeout:  timeout,
		executor: executor,
		logger:   logger,
	}
}

// Validate checks that the gh CLI is installed and authenticated.
func (g *GitHubStore) Validate(ctx context.Context) error {
	if _, err := exec.LookPath("gh"); err != nil {
		return synerrors.UserError{
			Message:    "GitHub CLI not found",
			Suggestion: "Install the GitHub CLI: https://cli.github.com/",
			Details:    "The gh command-line tool is required to manage repository secrets",
			Err:        err,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if _, stderr, err := g.executor.Execute(ctx, nil, "gh", "auth", "status"); err != nil {
		suggestion := synerrors.RemoteSuggestion(string(stderr))
		if suggestion == "" {
			suggestion = "Run 'gh auth login' to authenticate with GitHub"
		}
		return synerrors.UserError{
			Message:    "GitHub CLI is not authenticated",
			Suggestion: suggestion,
			Details:    "gh auth status reported a failure",
			Err:        err,
		}
	}
	return nil
}

// List fetches the current remote snapshot, once per run.
func (g *GitHubStore) List(ctx context.Context) ([]Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	g.logger.Debug("Listing secrets for %s", g.repo)

	stdout, stderr, err := g.executor.Execute(ctx, nil, "gh",
		"secret", "list", "--repo", g.repo, "--json", "name,updatedAt")
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, TimeoutError{Op: "list", Timeout: g.timeout}
		}
		return nil, ListError{Repo: g.repo, Err: wrapCLIError("gh secret list", stderr, err)}
	}

	var snapshots []Snapshot
	if err := json.Unmarshal(stdout, &snapshots); err != nil {
		return nil, ListError{Repo: g.repo, Err: wrapCLIError("gh secret list", []byte("invalid JSON output"), err)}
	}

	g.logger.Debug("Remote reports %d secrets", len(snapshots))
	return snapshots, nil
}

// Set creates or updates one secret. The value is piped over stdin; it never
// appears in the process argument list.
func (g *GitHubStore) Set(ctx context.Context, name string, value *secure.Value) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	locked, err := value.Open()
	if err != nil {
		return WriteError{Repo: g.repo, Key: name, Op: "set", Err: err}
	}
	defer locked.Destroy()

	g.logger.Debug("Setting secret %s (%d bytes)", name, locked.Size())

	_, stderr, err := g.executor.Execute(ctx, locked.Bytes(), "gh",
		"secret", "set", name, "--repo", g.repo)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return TimeoutError{Op: "set " + name, Timeout: g.timeout}
		}
		return WriteError{
			Repo:        g.repo,
			Key:         name,
			Op:          "set",
			ValueLength: locked.Size(),
			Err:         wrapCLIError("gh secret set", stderr, err),
		}
	}
	return nil
}

// Delete removes one secret.
func (g *GitHubStore) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	g.logger.Debug("Deleting secret %s", name)

	_, stderr, err := g.executor.Execute(ctx, nil, "gh",
		"secret", "delete", name, "--repo", g.repo)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return TimeoutError{Op: "delete " + name, Timeout: g.timeout}
		}
		return WriteError{Repo: g.repo, Key: name, Op: "delete", Err: wrapCLIError("gh secret delete", stderr, err)}
	}
	return nil
}

// wrapCLIError attaches the CLI's stderr to the error. gh prints only
// diagnostics to stderr, never secret values, but the text still flows
// through the scrubbing logger before reaching a terminal.
func wrapCLIError(command string, stderr []byte, err error) error {
	detail := strings.TrimSpace(string(stderr))
	if detail == "" {
		return synerrors.CommandError{Command: command, Message: err.Error(), Suggestion: synerrors.RemoteSuggestion(err.Error())}
	}
	return synerrors.CommandError{Command: command, Message: detail, Suggestion: synerrors.RemoteSuggestion(detail)}
}
