// Package git wraps the git command-line tool for the operations the
// pipeline needs.
package git

import "context"

// Git defines git operations needed by pakagent.
type Git interface {
	// IsRepo reports whether dir is inside a git work tree.
	IsRepo(ctx context.Context, dir string) bool
	// Branch returns the current branch name, or short commit SHA if in detached HEAD state.
	Branch(ctx context.Context, dir string) (string, error)
	// Status returns the porcelain status of dir.
	Status(ctx context.Context, dir string) (Status, error)
	// BranchExists reports whether a local branch named name exists.
	BranchExists(ctx context.Context, dir, name string) (bool, error)
	// Checkout switches to the specified branch in dir.
	Checkout(ctx context.Context, dir, branch string) error
	// CreateBranch creates branch and switches to it.
	CreateBranch(ctx context.Context, dir, branch string) error
	// DeleteBranch deletes a merged local branch.
	DeleteBranch(ctx context.Context, dir, branch string) error
	// AddAll stages every change in dir.
	AddAll(ctx context.Context, dir string) error
	// Commit records staged changes with msg.
	Commit(ctx context.Context, dir, msg string) error
	// GetDiff returns a unified diff for dir.
	GetDiff(ctx context.Context, dir string, opts DiffOptions) (string, error)
}

// Status is the working tree state reported by `git status --porcelain`.
type Status struct {
	Clean     bool
	Porcelain string
}

// Context is the repository state captured once at startup.
type Context struct {
	IsRepo         bool
	OriginalBranch string
}

// NewContext inspects dir. Outside a repository OriginalBranch is empty.
func NewContext(ctx context.Context, g Git, dir string) Context {
	if !g.IsRepo(ctx, dir) {
		return Context{}
	}
	branch, err := g.Branch(ctx, dir)
	if err != nil {
		return Context{IsRepo: true}
	}
	return Context{IsRepo: true, OriginalBranch: branch}
}
