package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/pakagent/pkg/executil"
)

// DefaultTimeout bounds each git invocation.
const DefaultTimeout = 5 * time.Second

// Executor implements Git using the git command-line tool.
type Executor struct {
	gitPath string
	exec    executil.Executor
	timeout time.Duration
}

// NewExecutor creates a new git executor with the specified git binary path.
// A zero timeout falls back to DefaultTimeout.
func NewExecutor(gitPath string, exec executil.Executor, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{gitPath: gitPath, exec: exec, timeout: timeout}
}

func (e *Executor) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.exec.RunDir(ctx, dir, e.gitPath, args...)
}

func (e *Executor) IsRepo(ctx context.Context, dir string) bool {
	_, err := e.run(ctx, dir, "rev-parse", "--git-dir")
	return err == nil
}

func (e *Executor) Branch(ctx context.Context, dir string) (string, error) {
	out, err := e.run(ctx, dir, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("git branch: %w", err)
	}

	branch := strings.TrimSpace(string(out))
	if branch != "" {
		return branch, nil
	}

	// Empty branch name means detached HEAD - get short commit SHA
	out, err = e.run(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *Executor) Status(ctx context.Context, dir string) (Status, error) {
	out, err := e.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return Status{}, fmt.Errorf("git status: %w", err)
	}
	porcelain := strings.TrimRight(string(out), "\n")
	return Status{Clean: strings.TrimSpace(porcelain) == "", Porcelain: porcelain}, nil
}

func (e *Executor) BranchExists(ctx context.Context, dir, name string) (bool, error) {
	out, err := e.run(ctx, dir, "branch", "--list", name)
	if err != nil {
		return false, fmt.Errorf("git branch --list: %w", err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

func (e *Executor) Checkout(ctx context.Context, dir, branch string) error {
	if _, err := e.run(ctx, dir, "checkout", branch); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

func (e *Executor) CreateBranch(ctx context.Context, dir, branch string) error {
	if _, err := e.run(ctx, dir, "checkout", "-b", branch); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}

func (e *Executor) DeleteBranch(ctx context.Context, dir, branch string) error {
	if _, err := e.run(ctx, dir, "branch", "-d", branch); err != nil {
		return fmt.Errorf("delete branch %s: %w", branch, err)
	}
	return nil
}

func (e *Executor) AddAll(ctx context.Context, dir string) error {
	if _, err := e.run(ctx, dir, "add", "."); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	return nil
}

func (e *Executor) Commit(ctx context.Context, dir, msg string) error {
	if _, err := e.run(ctx, dir, "commit", "-m", msg); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}
