// Package logutils builds the process-wide zerolog logger.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hay-kot/pakagent/pkg/redact"
	"github.com/rs/zerolog"
)

// New returns a JSON logger at level (debug, info, warn, error or fatal) and
// a func that releases its sink.
//
// Records go to file, appended and created with its parent directories, or to
// stderr when file is empty so they never mix with command output on stdout.
// The sink is wrapped in redact.Writer: API keys and bearer tokens that end
// up in request errors are masked before they are written.
func New(level string, file string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, func() {}, fmt.Errorf("parse log level %q: %w", level, err)
	}

	sink, closer, err := openSink(file)
	if err != nil {
		return zerolog.Logger{}, func() {}, err
	}

	l := zerolog.New(redact.Writer(sink)).Level(lvl).With().Timestamp().Logger()
	return l, closer, nil
}

func openSink(file string) (io.Writer, func(), error) {
	if file == "" {
		return os.Stderr, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
