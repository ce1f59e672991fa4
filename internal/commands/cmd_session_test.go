package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hay-kot/pakagent/internal/core/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPath(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run(t, "session", "path"))
	assert.Equal(t, env.paths.Dir, strings.TrimSpace(env.stdout.String()))
}

func TestSessionPath_JSON(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run(t, "session", "path", "--json"))

	var got session.Paths
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &got))
	assert.Equal(t, env.paths, got)
}

func TestSessionReset(t *testing.T) {
	env := newTestEnv(t)
	env.writeSession(t, env.paths.Archive, "FILE: calc.py\n")

	require.NoError(t, env.run(t, "session", "reset"))

	assert.Equal(t, env.paths.Dir, env.app.Session.Paths().Dir, "pinned directory is reused")
	assert.NoFileExists(t, env.paths.Archive)
	assert.DirExists(t, env.paths.Dir)
	assert.Equal(t, "session-reset", env.hist.last(t).Stage)
}

func TestSessionCleanup(t *testing.T) {
	env := newTestEnv(t)
	env.writeSession(t, env.paths.Fix, "FILE: calc.py\n")

	require.NoError(t, env.run(t, "session", "cleanup"))

	assert.NoDirExists(t, env.paths.Dir)
	entry := env.hist.last(t)
	assert.Equal(t, "session-cleanup", entry.Stage)
	assert.Equal(t, env.paths.Dir, entry.SessionDir)
}
