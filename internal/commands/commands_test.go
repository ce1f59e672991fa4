package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/hay-kot/pakagent/internal/core/config"
	"github.com/hay-kot/pakagent/internal/core/git"
	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/core/llm"
	"github.com/hay-kot/pakagent/internal/core/session"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/hay-kot/pakagent/pkg/executil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// swap replaces a package-level hook for the duration of the test.
func swap[T any](t *testing.T, target *T, v T) {
	t.Helper()
	old := *target
	*target = v
	t.Cleanup(func() { *target = old })
}

// fakeGit tracks branches in memory.
type fakeGit struct {
	current  string
	branches map[string]bool
	status   git.Status
	diff     string
	commits  []string
	deleted  []string
}

func newFakeGit(current string) *fakeGit {
	return &fakeGit{current: current, branches: map[string]bool{current: true}, status: git.Status{Clean: true}}
}

func (f *fakeGit) IsRepo(context.Context, string) bool { return true }
func (f *fakeGit) Branch(context.Context, string) (string, error) {
	return f.current, nil
}

func (f *fakeGit) Status(context.Context, string) (git.Status, error) {
	return f.status, nil
}

func (f *fakeGit) BranchExists(_ context.Context, _, name string) (bool, error) {
	return f.branches[name], nil
}

func (f *fakeGit) Checkout(_ context.Context, _, branch string) error {
	if !f.branches[branch] {
		return errors.New("no such branch: " + branch)
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

func (f *fakeGit) AddAll(context.Context, string) error { return nil }
func (f *fakeGit) Commit(_ context.Context, _, msg string) error {
	f.commits = append(f.commits, f.current+": "+msg)
	return nil
}

func (f *fakeGit) GetDiff(context.Context, string, git.DiffOptions) (string, error) {
	return f.diff, nil
}

// memHistory is an in-memory history.Store.
type memHistory struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (m *memHistory) Record(_ context.Context, e history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memHistory) List(_ context.Context, limit int) ([]history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.entries)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memHistory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func (m *memHistory) last(t *testing.T) history.Entry {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.entries, "no history recorded")
	return m.entries[len(m.entries)-1]
}

// fakeCompleter returns a canned reply and remembers the prompts it got.
type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	return f.reply, f.err
}

type testEnv struct {
	app   *pakagent.App
	flags *Flags
	exec  *executil.RecordingExecutor
	git   *fakeGit
	hist  *memHistory
	paths session.Paths

	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.PakPath = "pak"
	cfg.GitPath = "git"
	cfg.LLM.RemoteClassifier = false

	sess := session.Resolve(session.Options{Dir: t.TempDir()}, zerolog.Nop())
	rec := &executil.RecordingExecutor{}
	g := newFakeGit("main")
	hist := &memHistory{}

	app := pakagent.NewApp(&cfg, sess, g, git.NewContext(context.Background(), g, "."), rec, hist, t.TempDir(), zerolog.Nop())

	swap(t, &confirmFunc, func(string, string) (bool, error) {
		t.Fatal("unexpected confirmation prompt")
		return false, nil
	})

	return &testEnv{
		app:    app,
		flags:  &Flags{Config: &cfg, ConfigPath: "", DataDir: cfg.DataDir},
		exec:   rec,
		git:    g,
		hist:   hist,
		paths:  sess.Paths(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

// run executes the CLI with args and returns the action error. cli.Exit
// errors are returned instead of terminating the test binary.
func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()

	root := &cli.Command{
		Name:           "pakagent",
		Writer:         e.stdout,
		ErrWriter:      e.stderr,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	root = RegisterAll(root, e.flags, e.app)

	ctx := printer.NewContext(context.Background(), printer.New(e.stdout, e.stderr))
	return root.Run(ctx, append([]string{"pakagent"}, args...))
}

func (e *testEnv) writeSession(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// exitCode returns the code of a cli.ExitCoder, or -1.
func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}
