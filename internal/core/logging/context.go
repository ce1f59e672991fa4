package logging

import "context"

type tagsKey struct{}

// tags are the pipeline coordinates attached to every log event emitted with
// a tagged context.
type tags struct {
	stage string
	cycle int
}

func tagsFrom(ctx context.Context) tags {
	if ctx == nil {
		return tags{}
	}
	t, _ := ctx.Value(tagsKey{}).(tags)
	return t
}

// WithStage tags the context with the pipeline stage being run, such as
// "modify" or "loop-consumer".
func WithStage(ctx context.Context, stage string) context.Context {
	t := tagsFrom(ctx)
	t.stage = stage
	return context.WithValue(ctx, tagsKey{}, t)
}

// WithCycle tags the context with a mailbox loop cycle number. Cycles start
// at 1; 0 means untagged.
func WithCycle(ctx context.Context, cycle int) context.Context {
	t := tagsFrom(ctx)
	t.cycle = cycle
	return context.WithValue(ctx, tagsKey{}, t)
}
