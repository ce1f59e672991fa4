package commands

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, env.hist.Record(ctx, history.Entry{ID: "1", Stage: "prepare", Status: history.StatusSuccess, Detail: "2.1 kB", StartedAt: now.Add(-time.Hour)}))
	require.NoError(t, env.hist.Record(ctx, history.Entry{ID: "2", Stage: "modify", Status: history.StatusSuccess, Detail: "add logging\nto calc", StartedAt: now.Add(-time.Minute)}))
	require.NoError(t, env.hist.Record(ctx, history.Entry{ID: "3", Stage: "apply", Status: history.StatusFailed, Branch: "feat", Detail: strings.Repeat("x", 80), StartedAt: now}))
}

func TestHistory_Table(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env)

	require.NoError(t, env.run(t, "history"))

	lines := strings.Split(strings.TrimSpace(env.stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "WHEN"))
	assert.Contains(t, lines[1], "apply")
	assert.Contains(t, lines[1], "[feat] ")
	assert.Contains(t, lines[1], "...")
	assert.Contains(t, lines[2], "add logging to calc")
	assert.Contains(t, lines[3], "prepare")
}

func TestHistory_JSONLimit(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env)

	require.NoError(t, env.run(t, "history", "--json", "-n", "2"))

	var got []history.Entry
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestHistory_JSONEmpty(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run(t, "history", "--json"))
	assert.Equal(t, "[]", strings.TrimSpace(env.stdout.String()))
}

func TestHistory_Clear(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env)

	require.NoError(t, env.run(t, "history", "clear", "--force"))

	entries, err := env.hist.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntryDetail(t *testing.T) {
	assert.Equal(t, "a b", entryDetail(history.Entry{Detail: "a\nb"}))
	assert.Equal(t, "[main] ok", entryDetail(history.Entry{Detail: "ok", Branch: "main"}))

	long := entryDetail(history.Entry{Detail: strings.Repeat("y", 100)})
	assert.Len(t, long, historyDetailWidth)
	assert.True(t, strings.HasSuffix(long, "..."))
}
