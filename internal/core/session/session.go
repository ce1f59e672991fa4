// Package session resolves the working directory that chains the pipeline
// stages together and the well-known files inside it.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// File names inside a session directory.
const (
	ArchiveFile = "archive.txt"
	AnswerFile  = "answer"
	FixFile     = "fix"
)

// PointerFileName is the file in the user's home directory recording the
// active session directory across invocations.
const PointerFileName = ".pakagent_session"

const dirPrefix = "pakagent_"

// ErrMissingInput reports that a file a stage depends on does not exist.
var ErrMissingInput = errors.New("required file not found")

// Paths are the per-session file locations. Every file is a direct child of Dir.
type Paths struct {
	Dir     string `json:"dir"`
	Archive string `json:"archive"`
	Answer  string `json:"answer"`
	Fix     string `json:"fix"`
}

// NewPaths derives the session files under dir.
func NewPaths(dir string) Paths {
	return Paths{
		Dir:     dir,
		Archive: filepath.Join(dir, ArchiveFile),
		Answer:  filepath.Join(dir, AnswerFile),
		Fix:     filepath.Join(dir, FixFile),
	}
}

// Options control how the session directory is resolved.
type Options struct {
	// Dir pins the session directory. Reset empties it in place.
	Dir string
	// PointerFile records the active directory. Empty disables the pointer.
	PointerFile string
	// TempRoot is where fresh session directories are created. Defaults to
	// os.TempDir().
	TempRoot string
}

// DefaultPointerFile returns ~/.pakagent_session, or "" when the home
// directory is unknown.
func DefaultPointerFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, PointerFileName)
}

// Manager owns the session directory for one process.
type Manager struct {
	opts  Options
	paths Paths
	log   zerolog.Logger
}

// Resolve picks the session directory: the pinned Dir, then the directory
// named by the pointer file, then a fresh temp directory. Directory creation
// is best effort; failures are logged and surface later as missing files.
func Resolve(opts Options, log zerolog.Logger) *Manager {
	if opts.TempRoot == "" {
		opts.TempRoot = os.TempDir()
	}

	m := &Manager{opts: opts, log: log}

	switch {
	case opts.Dir != "":
		m.ensureDir(opts.Dir)
		m.paths = NewPaths(opts.Dir)
	case m.fromPointer() != "":
		m.paths = NewPaths(m.fromPointer())
	default:
		m.paths = NewPaths(m.freshDir())
		m.writePointer()
	}

	m.log.Debug().Str("dir", m.paths.Dir).Msg("session resolved")
	return m
}

// Paths returns the current session file locations.
func (m *Manager) Paths() Paths {
	return m.paths
}

// Reset deletes the current session directory and switches to a new one.
// With a pinned directory the same path is recreated empty.
func (m *Manager) Reset() error {
	old := m.paths.Dir
	if err := os.RemoveAll(old); err != nil {
		m.log.Warn().Err(err).Str("dir", old).Msg("remove session dir")
	}

	if m.opts.Dir != "" {
		m.ensureDir(m.opts.Dir)
		m.paths = NewPaths(m.opts.Dir)
		return nil
	}

	m.paths = NewPaths(m.freshDir())
	if err := m.writePointer(); err != nil {
		return fmt.Errorf("write session pointer: %w", err)
	}
	m.log.Info().Str("old", old).Str("new", m.paths.Dir).Msg("session reset")
	return nil
}

// Cleanup deletes the session directory and the pointer file. Nothing is
// recreated; the next process resolves a fresh session.
func (m *Manager) Cleanup() error {
	if err := os.RemoveAll(m.paths.Dir); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	if m.opts.PointerFile != "" {
		if err := os.Remove(m.opts.PointerFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session pointer: %w", err)
		}
	}
	m.log.Info().Str("dir", m.paths.Dir).Msg("session cleaned up")
	return nil
}

func (m *Manager) fromPointer() string {
	if m.opts.PointerFile == "" {
		return ""
	}
	data, err := os.ReadFile(m.opts.PointerFile)
	if err != nil {
		return ""
	}
	dir := strings.TrimSpace(string(data))
	if dir == "" {
		return ""
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ""
	}
	return dir
}

func (m *Manager) freshDir() string {
	m.ensureDir(m.opts.TempRoot)
	dir, err := os.MkdirTemp(m.opts.TempRoot, dirPrefix)
	if err != nil {
		m.log.Warn().Err(err).Str("root", m.opts.TempRoot).Msg("create session dir")
		return filepath.Join(m.opts.TempRoot, dirPrefix+"default")
	}
	return dir
}

func (m *Manager) ensureDir(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.log.Warn().Err(err).Str("dir", dir).Msg("create session dir")
	}
}

func (m *Manager) writePointer() error {
	if m.opts.PointerFile == "" {
		return nil
	}
	if err := os.WriteFile(m.opts.PointerFile, []byte(m.paths.Dir+"\n"), 0o600); err != nil {
		m.log.Warn().Err(err).Str("pointer", m.opts.PointerFile).Msg("write session pointer")
		return err
	}
	return nil
}

// RequireFiles returns ErrMissingInput for the first path that does not exist.
func RequireFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingInput, p)
		}
	}
	return nil
}
