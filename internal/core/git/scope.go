package git

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ScopeOptions configure a branch scope.
type ScopeOptions struct {
	// ConfirmDelete is asked on release whether a branch created by the scope
	// should be deleted. Nil keeps the branch.
	ConfirmDelete func(branch string) bool
	Log           zerolog.Logger
}

// BranchScope is an acquired branch switch. Release must be called on every
// exit path, typically with defer.
type BranchScope struct {
	git      Git
	dir      string
	original string
	branch   string
	created  bool
	opts     ScopeOptions
	released bool
}

// ReleaseReport describes what Release did. Restore failures are reported
// here instead of being returned as errors.
type ReleaseReport struct {
	Restored      bool
	RestoreErr    error
	DeletedBranch bool
	DeleteErr     error
}

// AcquireBranch switches dir to branch, creating it when it does not exist.
// gc.OriginalBranch is the branch Release returns to.
func AcquireBranch(ctx context.Context, g Git, gc Context, dir, branch string, opts ScopeOptions) (*BranchScope, error) {
	if !gc.IsRepo {
		return nil, fmt.Errorf("branch %s: not a git repository", branch)
	}

	exists, err := g.BranchExists(ctx, dir, branch)
	if err != nil {
		return nil, err
	}

	s := &BranchScope{git: g, dir: dir, original: gc.OriginalBranch, branch: branch, opts: opts}
	if exists {
		err = g.Checkout(ctx, dir, branch)
	} else {
		err = g.CreateBranch(ctx, dir, branch)
		s.created = err == nil
	}
	if err != nil {
		return nil, err
	}

	opts.Log.Info().Str("branch", branch).Bool("created", s.created).Msg("switched branch")
	return s, nil
}

// Branch is the branch the scope switched to.
func (s *BranchScope) Branch() string { return s.branch }

// Created reports whether the scope created the branch.
func (s *BranchScope) Created() bool { return s.created }

// Release switches back to the original branch and optionally deletes a
// branch the scope created. It is safe to call more than once.
func (s *BranchScope) Release(ctx context.Context) ReleaseReport {
	var report ReleaseReport
	if s == nil || s.released {
		return report
	}
	s.released = true

	if s.original == "" || s.original == s.branch {
		report.Restored = true
	} else if err := s.git.Checkout(ctx, s.dir, s.original); err != nil {
		report.RestoreErr = err
		s.opts.Log.Error().Err(err).Str("branch", s.original).Msg("failed to restore original branch")
		return report
	} else {
		report.Restored = true
	}

	if s.created && s.original != s.branch && s.opts.ConfirmDelete != nil && s.opts.ConfirmDelete(s.branch) {
		if err := s.git.DeleteBranch(ctx, s.dir, s.branch); err != nil {
			report.DeleteErr = err
			s.opts.Log.Warn().Err(err).Str("branch", s.branch).Msg("failed to delete branch")
		} else {
			report.DeletedBranch = true
		}
	}

	return report
}
