package textutil

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		n       int
		want    string
		wantCut bool
	}{
		{name: "shorter", in: "abc", n: 5, want: "abc"},
		{name: "exact", in: "abc", n: 3, want: "abc"},
		{name: "ascii cut", in: "abcdef", n: 4, want: "abcd", wantCut: true},
		{name: "multi-byte", in: "perché è così", n: 6, want: "perché", wantCut: true},
		{name: "emoji", in: "✅✅✅", n: 2, want: "✅✅", wantCut: true},
		{name: "zero", in: "abc", n: 0, want: "", wantCut: true},
		{name: "empty", in: "", n: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cut := Truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCut, cut)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
