package mailbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hay-kot/pakagent/internal/core/config"
	"github.com/hay-kot/pakagent/internal/core/llm"
	"github.com/hay-kot/pakagent/internal/core/pak"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDiff = `FILE: calc.py
FIND_METHOD: def add(self, a, b)
UNTIL_EXCLUDE: def sub(self, a, b)
REPLACE_WITH:
def add(self, a, b):
    return a + b
`

type fakePacker struct {
	fail  bool
	calls int
	last  pak.PackOptions
}

func (f *fakePacker) Pack(_ context.Context, opts pak.PackOptions) pak.Result {
	f.calls++
	f.last = opts
	if f.fail {
		return pak.Result{Err: &pak.RunError{Kind: pak.KindNonZeroExit, Detail: "boom"}}
	}
	_ = os.WriteFile(opts.Output, []byte(`{"files": []}`), 0o644)
	return pak.Result{Output: "packed"}
}

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.prompt = req.Prompt
	return f.reply, f.err
}

type fakeApplier struct {
	mu    sync.Mutex
	fail  bool
	delay time.Duration
	files []string
}

func (f *fakeApplier) ApplyDiff(_ context.Context, fix, _ string) pak.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, filepath.Base(fix))
	time.Sleep(f.delay)
	if f.fail {
		return pak.Result{Err: &pak.RunError{Kind: pak.KindNonZeroExit, Detail: "method not found"}}
	}
	return pak.Result{Output: "applied 1 change"}
}

func (f *fakeApplier) applied() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.files...)
}

func newTestProducer(t *testing.T, dir string, packer Packer, completer llm.Completer) *Producer {
	t.Helper()
	p := NewProducer(ProducerOptions{
		Dir:          dir,
		SourceDir:    ".",
		Extensions:   []string{"py", "js", "ts"},
		Compression:  "2",
		Instructions: []string{"first task", "second task"},
		MaxTokens:    100,
	}, packer, completer, llm.NewPrompts(config.Prompts{}, nil), zerolog.Nop())
	p.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	p.newID = func() string { return "abcdef12" }
	return p
}

func TestProducer_Cycle(t *testing.T) {
	dir := t.TempDir()
	packer := &fakePacker{}
	completer := &fakeCompleter{reply: "Here you go:\n```pakdiff\n" + validDiff + "```\n"}

	p := newTestProducer(t, dir, packer, completer)
	path, err := p.Cycle(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "change_abcdef12_002.diff"), path)
	assert.Equal(t, filepath.Join(dir, CodebaseFile), packer.last.Output)
	assert.Equal(t, []string{"py", "js", "ts"}, packer.last.Extensions)
	assert.Contains(t, completer.prompt, "TASK: second task")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "# Generated pakdiff for: second task\n# Cycle: 2, Time: 2025-03-04 05:06:07\n\n"))
	assert.Contains(t, content, "FILE: calc.py")

	_, err = os.Stat(path + tmpExt)
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
}

func TestProducer_CycleErrors(t *testing.T) {
	t.Run("pack failure", func(t *testing.T) {
		p := newTestProducer(t, t.TempDir(), &fakePacker{fail: true}, &fakeCompleter{})
		_, err := p.Cycle(context.Background(), 1)
		require.ErrorIs(t, err, ErrPackFailed)
	})

	t.Run("no pakdiff", func(t *testing.T) {
		p := newTestProducer(t, t.TempDir(), &fakePacker{}, &fakeCompleter{reply: "I cannot help"})
		_, err := p.Cycle(context.Background(), 1)
		require.ErrorIs(t, err, ErrNoPakdiff)
	})

	t.Run("llm failure", func(t *testing.T) {
		p := newTestProducer(t, t.TempDir(), &fakePacker{}, &fakeCompleter{err: errors.New("503")})
		_, err := p.Cycle(context.Background(), 1)
		require.Error(t, err)
	})
}

func TestProducer_InstructionRotation(t *testing.T) {
	p := newTestProducer(t, t.TempDir(), &fakePacker{}, &fakeCompleter{})
	assert.Equal(t, "first task", p.Instruction(1))
	assert.Equal(t, "second task", p.Instruction(2))
	assert.Equal(t, "first task", p.Instruction(3))
}

func TestProducer_RunStopsAtMaxCycles(t *testing.T) {
	dir := t.TempDir()
	packer := &fakePacker{}
	p := newTestProducer(t, dir, packer, &fakeCompleter{reply: "```\n" + validDiff + "```"})
	p.opts.MaxCycles = 2
	p.opts.Interval = time.Millisecond
	ids := []string{"aaaaaaaa", "bbbbbbbb"}
	p.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 2, packer.calls)

	matches, err := filepath.Glob(filepath.Join(dir, "*.diff"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func writeDiff(t *testing.T, dir, name, content string) string {
	t.Helper()
	path, err := publish(dir, name, []byte(content))
	require.NoError(t, err)
	return path
}

func TestConsumer_Drain(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, AppliedDir), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, FailedDir), 0o755))

	writeDiff(t, dir, "change_good_001.diff", "# header\n\n"+validDiff)
	writeDiff(t, dir, "change_bad_002.diff", "no directives here")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "change_partial_003.diff.tmp"), []byte(validDiff), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, CodebaseFile), []byte("{}"), 0o644))

	applier := &fakeApplier{delay: 10 * time.Millisecond}
	c := NewConsumer(ConsumerOptions{Dir: dir, TargetDir: "."}, applier, zerolog.Nop())

	var outcomes []Outcome
	c.OnOutcome = func(_ context.Context, o Outcome) { outcomes = append(outcomes, o) }

	n, err := c.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, outcomes, 2)

	assert.Equal(t, []string{"change_good_001.diff"}, applier.applied())
	for _, o := range outcomes {
		if o.Applied {
			assert.GreaterOrEqual(t, o.Duration, 10*time.Millisecond)
		}
	}
	assert.FileExists(t, filepath.Join(dir, AppliedDir, "change_good_001.diff"))
	assert.FileExists(t, filepath.Join(dir, FailedDir, "change_bad_002.diff"))
	assert.FileExists(t, filepath.Join(dir, FailedDir, "change_bad_002.diff.err"))
	assert.FileExists(t, filepath.Join(dir, "change_partial_003.diff.tmp"))

	pending, err := c.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestConsumer_ApplyFailureMovesToFailed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, FailedDir), 0o755))
	path := writeDiff(t, dir, "change_x_001.diff", validDiff)

	c := NewConsumer(ConsumerOptions{Dir: dir, TargetDir: "."}, &fakeApplier{fail: true}, zerolog.Nop())
	o := c.Process(context.Background(), path)

	assert.False(t, o.Applied)
	assert.Equal(t, "method not found", o.Detail)
	errFile, err := os.ReadFile(filepath.Join(dir, FailedDir, "change_x_001.diff.err"))
	require.NoError(t, err)
	assert.Equal(t, "method not found\n", string(errFile))
}

func TestConsumer_RunPicksUpPublishedFiles(t *testing.T) {
	dir := t.TempDir()
	applier := &fakeApplier{}
	c := NewConsumer(ConsumerOptions{Dir: dir, TargetDir: ".", PollInterval: 20 * time.Millisecond}, applier, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, FailedDir))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	writeDiff(t, dir, "change_live_001.diff", validDiff)

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, AppliedDir, "change_live_001.diff"))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_ProducerThenConsumer(t *testing.T) {
	dir := t.TempDir()
	p := newTestProducer(t, dir, &fakePacker{}, &fakeCompleter{reply: "```pakdiff\n" + validDiff + "```"})
	p.opts.MaxCycles = 1

	applier := &fakeApplier{}
	c := NewConsumer(ConsumerOptions{Dir: dir, TargetDir: ".", PollInterval: 20 * time.Millisecond}, applier, zerolog.Nop())

	require.NoError(t, Run(context.Background(), p, c))
	assert.Equal(t, []string{"change_abcdef12_001.diff"}, applier.applied())
	assert.FileExists(t, filepath.Join(dir, AppliedDir, "change_abcdef12_001.diff"))
}

func TestIsPending(t *testing.T) {
	assert.True(t, IsPending("/x/change_1.diff"))
	assert.False(t, IsPending("/x/change_1.diff.tmp"))
	assert.False(t, IsPending("/x/.hidden.diff"))
	assert.False(t, IsPending("/x/current_codebase.pak"))
}
