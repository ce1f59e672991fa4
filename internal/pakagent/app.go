// Package pakagent wires the pipeline dependencies shared by every command.
package pakagent

import (
	"context"
	"time"

	"github.com/hay-kot/pakagent/internal/core/config"
	"github.com/hay-kot/pakagent/internal/core/git"
	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/core/pak"
	"github.com/hay-kot/pakagent/internal/core/session"
	"github.com/hay-kot/pakagent/pkg/executil"
	"github.com/rs/zerolog"
)

// App is the central entry point for all pakagent operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Config  *config.Config
	Session *session.Manager
	Git     git.Git
	// GitContext is captured once at startup for the working directory.
	GitContext git.Context
	Exec       executil.Executor
	History    history.Store
	Doctor     *DoctorService
	// WorkDir is the tree pak applies to and git operates on.
	WorkDir string

	log zerolog.Logger
}

// NewApp constructs an App from explicit dependencies. hist may be nil, in
// which case nothing is recorded.
func NewApp(
	cfg *config.Config,
	sess *session.Manager,
	g git.Git,
	gc git.Context,
	exec executil.Executor,
	hist history.Store,
	workDir string,
	log zerolog.Logger,
) *App {
	a := &App{
		Config:     cfg,
		Session:    sess,
		Git:        g,
		GitContext: gc,
		Exec:       exec,
		History:    hist,
		WorkDir:    workDir,
		log:        log,
	}
	a.Doctor = NewDoctorService(a)
	return a
}

// Pak returns a bridge to the pak binary. The current session files and any
// extra paths are trusted and skip argument sanitization.
func (a *App) Pak(trusted ...string) *pak.Bridge {
	p := a.Session.Paths()
	trusted = append([]string{p.Dir, p.Archive, p.Fix}, trusted...)

	t := a.Config.Timeouts
	return pak.NewBridge(a.Config.PakPath, a.Exec, pak.Timeouts{
		Pack:    t.Pack,
		Apply:   t.Apply,
		Verify:  t.Verify,
		Extract: t.Extract,
	}, a.log.With().Str("component", "pak").Logger(), trusted...)
}

// Record stores the outcome of a stage. Failures are logged and never
// returned so history can't break the pipeline.
func (a *App) Record(ctx context.Context, e history.Entry) {
	if a.History == nil {
		return
	}
	if e.SessionDir == "" {
		e.SessionDir = a.Session.Paths().Dir
	}
	if e.Duration == 0 && !e.StartedAt.IsZero() {
		e.Duration = time.Since(e.StartedAt)
	}
	if err := a.History.Record(ctx, e); err != nil {
		a.log.Warn().Err(err).Str("stage", e.Stage).Msg("failed to record history")
	}
}
