// Package redact masks credentials in text before it is logged or printed.
package redact

import (
	"io"
	"regexp"
)

const mask = "***MASKED***"

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`),
	regexp.MustCompile(`(?i)((?:api[_-]?key|token|secret|password)["']?\s*[:=]\s*["']?)[^\s"',}]+`),
	regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}`),
	regexp.MustCompile(`\b[A-Za-z0-9_-]{40,}\b`),
}

// String returns s with bearer tokens, key/value credentials and long opaque
// tokens replaced by a mask.
func String(s string) string {
	for i, re := range patterns {
		if i < 2 {
			s = re.ReplaceAllString(s, "${1}"+mask)
			continue
		}
		s = re.ReplaceAllString(s, mask)
	}
	return s
}

// Writer wraps w so every write is masked. Each Write is treated as a whole
// record, which matches how zerolog emits one event per call.
func Writer(w io.Writer) io.Writer {
	return &writer{w: w}
}

type writer struct {
	w io.Writer
}

func (r *writer) Write(p []byte) (int, error) {
	if _, err := r.w.Write([]byte(String(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
