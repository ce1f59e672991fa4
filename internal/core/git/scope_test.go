package git

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit tracks the checked out branch in memory.
type fakeGit struct {
	current     string
	branches    map[string]bool
	checkoutErr map[string]error
	deleted     []string
}

func newFakeGit(current string, branches ...string) *fakeGit {
	f := &fakeGit{current: current, branches: map[string]bool{current: true}, checkoutErr: map[string]error{}}
	for _, b := range branches {
		f.branches[b] = true
	}
	return f
}

func (f *fakeGit) IsRepo(context.Context, string) bool { return true }
func (f *fakeGit) Branch(context.Context, string) (string, error) {
	return f.current, nil
}

func (f *fakeGit) Status(context.Context, string) (Status, error) {
	return Status{Clean: true}, nil
}

func (f *fakeGit) BranchExists(_ context.Context, _, name string) (bool, error) {
	return f.branches[name], nil
}

func (f *fakeGit) Checkout(_ context.Context, _, branch string) error {
	if err := f.checkoutErr[branch]; err != nil {
		return err
	}
	f.current = branch
	return nil
}

func (f *fakeGit) CreateBranch(_ context.Context, _, branch string) error {
	f.branches[branch] = true
	f.current = branch
	return nil
}

func (f *fakeGit) DeleteBranch(_ context.Context, _, branch string) error {
	delete(f.branches, branch)
	f.deleted = append(f.deleted, branch)
	return nil
}

func (f *fakeGit) AddAll(context.Context, string) error         { return nil }
func (f *fakeGit) Commit(context.Context, string, string) error { return nil }
func (f *fakeGit) GetDiff(context.Context, string, DiffOptions) (string, error) {
	return "", nil
}

func TestBranchScope_RestoresAfterFailure(t *testing.T) {
	ctx := context.Background()
	g := newFakeGit("main")
	gc := NewContext(ctx, g, ".")

	work := func() (err error) {
		scope, err := AcquireBranch(ctx, g, gc, ".", "feature-x", ScopeOptions{Log: zerolog.Nop()})
		if err != nil {
			return err
		}
		defer scope.Release(ctx)

		assert.Equal(t, "feature-x", g.current)
		return errors.New("apply failed")
	}

	require.Error(t, work())
	assert.Equal(t, "main", g.current)
}

func TestBranchScope_RestoresAfterPanic(t *testing.T) {
	ctx := context.Background()
	g := newFakeGit("main", "feature-x")
	gc := NewContext(ctx, g, ".")

	assert.Panics(t, func() {
		scope, err := AcquireBranch(ctx, g, gc, ".", "feature-x", ScopeOptions{Log: zerolog.Nop()})
		require.NoError(t, err)
		defer scope.Release(ctx)
		panic("boom")
	})
	assert.Equal(t, "main", g.current)
}

func TestBranchScope_DeletesCreatedBranchWhenConfirmed(t *testing.T) {
	ctx := context.Background()
	g := newFakeGit("main")
	gc := NewContext(ctx, g, ".")

	scope, err := AcquireBranch(ctx, g, gc, ".", "feature-x", ScopeOptions{
		Log:           zerolog.Nop(),
		ConfirmDelete: func(string) bool { return true },
	})
	require.NoError(t, err)
	assert.True(t, scope.Created())

	report := scope.Release(ctx)
	assert.True(t, report.Restored)
	assert.True(t, report.DeletedBranch)
	assert.Equal(t, []string{"feature-x"}, g.deleted)

	again := scope.Release(ctx)
	assert.False(t, again.Restored, "second release is a no-op")
}

func TestBranchScope_KeepsExistingBranch(t *testing.T) {
	ctx := context.Background()
	g := newFakeGit("main", "feature-x")
	gc := NewContext(ctx, g, ".")

	scope, err := AcquireBranch(ctx, g, gc, ".", "feature-x", ScopeOptions{
		Log:           zerolog.Nop(),
		ConfirmDelete: func(string) bool { return true },
	})
	require.NoError(t, err)
	assert.False(t, scope.Created())

	report := scope.Release(ctx)
	assert.False(t, report.DeletedBranch)
	assert.Empty(t, g.deleted)
}

func TestBranchScope_RestoreFailureIsReported(t *testing.T) {
	ctx := context.Background()
	g := newFakeGit("main")
	gc := NewContext(ctx, g, ".")

	scope, err := AcquireBranch(ctx, g, gc, ".", "feature-x", ScopeOptions{Log: zerolog.Nop()})
	require.NoError(t, err)

	g.checkoutErr["main"] = errors.New("local changes would be overwritten")
	report := scope.Release(ctx)

	assert.False(t, report.Restored)
	require.Error(t, report.RestoreErr)
	assert.Equal(t, "feature-x", g.current)
}

func TestAcquireBranch_NotRepo(t *testing.T) {
	_, err := AcquireBranch(context.Background(), newFakeGit("main"), Context{}, ".", "x", ScopeOptions{})
	require.Error(t, err)
}
