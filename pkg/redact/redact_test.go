package redact

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		hidden  string
		visible string
	}{
		{
			name:    "bearer header",
			input:   "Authorization: Bearer abc123.def456",
			hidden:  "abc123.def456",
			visible: "Authorization: Bearer ",
		},
		{
			name:    "api key assignment",
			input:   `api_key="supersecretvalue"`,
			hidden:  "supersecretvalue",
			visible: "api_key=",
		},
		{
			name:    "openai style key",
			input:   "failed with key sk-or-v1-0123456789abcdef",
			hidden:  "sk-or-v1-0123456789abcdef",
			visible: "failed with key",
		},
		{
			name:    "long opaque token",
			input:   "token " + strings.Repeat("x", 48) + " end",
			hidden:  strings.Repeat("x", 48),
			visible: " end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := String(tt.input)
			assert.NotContains(t, got, tt.hidden)
			assert.Contains(t, got, tt.visible)
			assert.Contains(t, got, mask)
		})
	}
}

func TestString_LeavesPlainTextAlone(t *testing.T) {
	in := "pak -ad /tmp/pakagent_1/fix ."
	assert.Equal(t, in, String(in))
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := Writer(&buf)

	n, err := w.Write([]byte(`{"msg":"calling","auth":"Bearer s3cr3t"}`))
	require.NoError(t, err)
	assert.Equal(t, len(`{"msg":"calling","auth":"Bearer s3cr3t"}`), n)
	assert.NotContains(t, buf.String(), "s3cr3t")
}
