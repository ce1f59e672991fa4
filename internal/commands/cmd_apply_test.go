package commands

import (
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const applyFix = `FILE: calc.py
FIND_METHOD: def add(a, b)
UNTIL_EXCLUDE: def sub(a, b)
REPLACE_WITH:
def add(a, b):
    return a + b
`

// pakAnswers replies to pak by flag: -vd verifies, -ad applies.
func pakAnswers(verify, apply error) func(dir, cmd string, args []string) ([]byte, error) {
	return func(_, _ string, args []string) ([]byte, error) {
		switch {
		case slices.Contains(args, "-vd"):
			return nil, verify
		case slices.Contains(args, "-ad"):
			if apply != nil {
				return nil, apply
			}
			return []byte("applied 1 change\n"), nil
		}
		return nil, nil
	}
}

func applyEnv(t *testing.T, fix string) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.writeSession(t, env.paths.Answer, "Simplify add.")
	env.writeSession(t, env.paths.Fix, fix)
	return env
}

func pakArgs(env *testEnv) [][]string {
	var out [][]string
	for _, c := range env.exec.Calls() {
		out = append(out, c.Args)
	}
	return out
}

func TestApply_Force(t *testing.T) {
	env := applyEnv(t, applyFix)
	env.exec.Handler = pakAnswers(nil, nil)
	env.git.diff = "diff --git a/calc.py b/calc.py\n--- a/calc.py\n+++ b/calc.py\n@@ -1,2 +1,2 @@\n def add(a, b):\n-    return b + a\n+    return a + b\n"

	require.NoError(t, env.run(t, "apply", "--force"))

	assert.Equal(t, [][]string{
		{"-vd", env.paths.Fix},
		{"-ad", env.paths.Fix, "."},
	}, pakArgs(env))

	out := env.stdout.String()
	assert.Contains(t, out, "CHANGES PREVIEW")
	assert.Contains(t, out, "Simplify add.")
	assert.Contains(t, out, "Files to modify: 1")
	assert.Contains(t, out, "  - calc.py")
	assert.Contains(t, out, "applied 1 change")
	assert.Contains(t, out, "1 file(s) changed, 1 insertion(s), 1 deletion(s)")

	entry := env.hist.last(t)
	assert.Equal(t, "apply", entry.Stage)
	assert.Equal(t, history.StatusSuccess, entry.Status)
	assert.Equal(t, []string{"calc.py"}, entry.Files)
}

func TestApply_Declined(t *testing.T) {
	env := applyEnv(t, applyFix)
	swap(t, &confirmFunc, func(string, string) (bool, error) { return false, nil })

	require.NoError(t, env.run(t, "apply"))

	assert.Empty(t, env.exec.Calls())
	assert.Contains(t, env.stdout.String(), "Application cancelled")
	assert.Equal(t, history.StatusCancelled, env.hist.last(t).Status)
}

func TestApply_ValidationBlocks(t *testing.T) {
	env := applyEnv(t, "no directives here\n")

	err := env.run(t, "apply")

	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, env.exec.Calls())
	assert.Contains(t, env.stderr.String(), "no FILE sections found")
}

func TestApply_UnsafePathBlocks(t *testing.T) {
	env := applyEnv(t, "FILE: ../../etc/passwd\nREPLACE_WITH:\nroot\n")

	err := env.run(t, "apply")

	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, env.exec.Calls())
	assert.Contains(t, env.stderr.String(), "path traversal")
}

func TestApply_DangerousCodeWarns(t *testing.T) {
	env := applyEnv(t, "FILE: run.py\nFIND_METHOD:\nUNTIL_EXCLUDE:\nREPLACE_WITH:\nos.system(\"ls\")\n")
	env.exec.Handler = pakAnswers(nil, nil)

	require.NoError(t, env.run(t, "apply", "-f"))

	assert.Contains(t, env.stderr.String(), "potentially dangerous code")
	assert.Equal(t, history.StatusSuccess, env.hist.last(t).Status)
}

func TestApply_VerifyUnavailableIsSkipped(t *testing.T) {
	env := applyEnv(t, applyFix)
	env.exec.Handler = pakAnswers(&exec.Error{Name: "pak", Err: exec.ErrNotFound}, nil)

	require.NoError(t, env.run(t, "apply", "-f"))

	assert.Contains(t, env.stderr.String(), "skipping verification")
	assert.Len(t, env.exec.Calls(), 2)
}

func TestApply_VerifyFailureBlocks(t *testing.T) {
	env := applyEnv(t, applyFix)
	env.exec.Handler = pakAnswers(errors.New("bad selector on line 2"), nil)
	swap(t, &confirmFunc, func(string, string) (bool, error) { return true, nil })

	err := env.run(t, "apply")

	assert.Equal(t, 1, exitCode(err))
	assert.Len(t, env.exec.Calls(), 1)
	assert.Contains(t, env.stderr.String(), "bad selector on line 2")
}

func TestApply_BranchCommitsAndRestores(t *testing.T) {
	env := applyEnv(t, applyFix)
	env.exec.Handler = pakAnswers(nil, nil)

	require.NoError(t, env.run(t, "apply", "-f", "--git-branch", "pakagent/logging", "-m", "Add logging"))

	assert.Equal(t, "main", env.git.current)
	assert.True(t, env.git.branches["pakagent/logging"])
	assert.Equal(t, []string{"pakagent/logging: Add logging"}, env.git.commits)
	assert.Empty(t, env.git.deleted)

	entry := env.hist.last(t)
	assert.Equal(t, "pakagent/logging", entry.Branch)
	assert.Contains(t, env.stdout.String(), "Returned to branch main")
}

func TestApply_BranchDeletedAfterFailure(t *testing.T) {
	env := applyEnv(t, applyFix)
	env.exec.Handler = pakAnswers(nil, errors.New("selector not found"))

	var prompts []string
	swap(t, &confirmFunc, func(title, _ string) (bool, error) {
		prompts = append(prompts, title)
		return true, nil
	})

	err := env.run(t, "apply", "-f", "--git-branch", "pakagent/broken")

	assert.Equal(t, 1, exitCode(err))
	assert.Equal(t, []string{"Delete branch pakagent/broken?"}, prompts)
	assert.Equal(t, "main", env.git.current)
	assert.Equal(t, []string{"pakagent/broken"}, env.git.deleted)
	assert.Empty(t, env.git.commits)
	assert.Equal(t, history.StatusFailed, env.hist.last(t).Status)
}

func TestApply_PostHooks(t *testing.T) {
	env := applyEnv(t, applyFix)
	env.exec.Handler = pakAnswers(nil, nil)
	env.app.Config.Apply.PostHooks = []string{"gofmt -l {{ .Dir }}", "echo {{ range .Files }}{{ . }}{{ end }}"}

	var ran []string
	swap(t, &runHook, func(_ context.Context, dir, cmd string) error {
		assert.Equal(t, env.app.WorkDir, dir)
		ran = append(ran, cmd)
		return nil
	})

	require.NoError(t, env.run(t, "apply", "-f"))

	assert.Equal(t, []string{"gofmt -l " + env.app.WorkDir, "echo calc.py"}, ran)
}

func TestApply_MissingFiles(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, "apply")

	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, env.stdout.String(), "pakagent modify")
}

func TestApply_PreviewSortsFilesAndSkipsNewMethods(t *testing.T) {
	fix := `FILE: zeta.py
FIND_METHOD:
REPLACE_WITH:
def fresh():
    pass
FILE: alpha.py
FIND_METHOD: def run()
REPLACE_WITH:
def run():
    return 1
`
	env := newTestEnv(t)
	env.writeSession(t, env.paths.Answer, strings.Repeat("è", 600))
	env.writeSession(t, env.paths.Fix, fix)
	env.exec.Handler = pakAnswers(nil, nil)

	require.NoError(t, env.run(t, "apply", "--force"))

	out := env.stdout.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("è", 500)+"...")
	assert.NotContains(t, out, strings.Repeat("è", 501))
	assert.Less(t, strings.Index(out, "  - alpha.py"), strings.Index(out, "  - zeta.py"))
	assert.Contains(t, out, "Methods to modify: 1")
	assert.NotContains(t, out, "[NEW METHOD]")
}
