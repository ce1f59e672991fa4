package git

import (
	"context"
	"testing"

	"github.com/hay-kot/pakagent/pkg/executil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/calculator.py b/calculator.py
index abc123..def456 100644
--- a/calculator.py
+++ b/calculator.py
@@ -1,3 +1,4 @@
 class Calculator:
     def add(self, a, b):
+        logger.info("add")
         return a + b
diff --git a/helpers.py b/helpers.py
new file mode 100644
index 0000000..1111111
--- /dev/null
+++ b/helpers.py
@@ -0,0 +1,2 @@
+def helper():
+    pass
`

func TestExecutor_GetDiff(t *testing.T) {
	tests := []struct {
		name     string
		opts     DiffOptions
		wantArgs []string
		wantErr  bool
	}{
		{name: "working tree", opts: DiffOptions{}, wantArgs: []string{"diff", "--no-color", "--no-ext-diff", "HEAD"}},
		{name: "against base", opts: DiffOptions{Base: "main"}, wantArgs: []string{"diff", "--no-color", "--no-ext-diff", "main"}},
		{
			name:     "limited to paths",
			opts:     DiffOptions{Paths: []string{"calculator.py", "helpers.py"}},
			wantArgs: []string{"diff", "--no-color", "--no-ext-diff", "HEAD", "--", "calculator.py", "helpers.py"},
		},
		{name: "base looks like a flag", opts: DiffOptions{Base: "--output=/tmp/x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &executil.RecordingExecutor{Outputs: map[string][]byte{"git": []byte(sampleDiff)}}
			e := NewExecutor("git", rec, 0)

			got, err := e.GetDiff(context.Background(), "/test/dir", tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, rec.Calls())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sampleDiff, got)
			require.Len(t, rec.Calls(), 1)
			assert.Equal(t, tt.wantArgs, rec.Calls()[0].Args)
		})
	}
}

func TestSummarize(t *testing.T) {
	changes, err := Summarize(sampleDiff)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, FileChange{Path: "calculator.py", Additions: 1}, changes[0])
	assert.Equal(t, FileChange{Path: "helpers.py", Additions: 2, New: true}, changes[1])

	add, del := Totals(changes)
	assert.Equal(t, 3, add)
	assert.Equal(t, 0, del)
}

func TestSummarize_Empty(t *testing.T) {
	changes, err := Summarize("  \n")
	require.NoError(t, err)
	assert.Empty(t, changes)
}
