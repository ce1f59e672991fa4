// Package logging tags zerolog output with pipeline context.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Install makes l the global logger with ContextHook attached, so any
// log.Ctx(ctx) event carries the stage and cycle of ctx.
func Install(l zerolog.Logger) {
	log.Logger = l.Hook(ContextHook{})
}

// Component derives a logger from the global one, labelled with the part of
// pakagent that owns it ("session", "git", "producer").
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
