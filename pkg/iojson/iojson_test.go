package iojson

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReader_Flag(t *testing.T) {
	fr := &FileReader[[]string]{}
	assert.Equal(t, "file", fr.Flag().Name)

	fr = &FileReader[[]string]{Name: "instructions-file"}
	assert.Equal(t, "instructions-file", fr.Flag().Name)
	assert.False(t, fr.Provided())
}

func TestFileReader_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`["a", "b"]`), 0o644))

	fr := &FileReader[[]string]{value: path}
	got, err := fr.Read()

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFileReader_ReadStdin(t *testing.T) {
	fr := &FileReader[map[string]int]{value: "-", stdin: strings.NewReader(`{"n": 3}`)}
	got, err := fr.Read()

	require.NoError(t, err)
	assert.Equal(t, 3, got["n"])
}

func TestFileReader_Errors(t *testing.T) {
	_, err := (&FileReader[[]string]{}).Read()
	require.Error(t, err)

	_, err = (&FileReader[[]string]{value: filepath.Join(t.TempDir(), "nope.json")}).Read()
	require.ErrorContains(t, err, "open file")

	_, err = (&FileReader[[]string]{value: "-", stdin: strings.NewReader("{")}).Read()
	require.ErrorContains(t, err, "decode JSON")
}

func TestWriteWith(t *testing.T) {
	var out, errOut strings.Builder

	require.NoError(t, WriteWith(&out, &errOut, map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n": 1}`, out.String())
	assert.Empty(t, errOut.String())

	out.Reset()
	require.NoError(t, WriteWith(&out, &errOut, map[string]any{"ch": make(chan int)}))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), `"json_error"`)
}

func TestWriteWith_KeepsShellAndCodeText(t *testing.T) {
	var out, errOut strings.Builder

	require.NoError(t, WriteWith(&out, &errOut, []string{"if a < b && b > c {"}))

	assert.Contains(t, out.String(), `"if a < b && b > c {"`)
	assert.True(t, strings.HasSuffix(out.String(), "]\n"))
}
