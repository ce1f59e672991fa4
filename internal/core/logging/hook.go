package logging

import (
	"github.com/rs/zerolog"
)

// ContextHook copies the stage and cycle tags of an event's context onto the
// event. Events logged without .Ctx(ctx) are left untouched.
type ContextHook struct{}

func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	t := tagsFrom(e.GetCtx())
	if t.stage != "" {
		e.Str("stage", t.stage)
	}
	if t.cycle > 0 {
		e.Int("cycle", t.cycle)
	}
}
