package events

import (
	"context"
	"log/slog"
)

var Emit = func(ctx context.Context, evt Event) {}

// EnableLogEmitter routes every event to log.
func EnableLogEmitter(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	SetCustomEmitter(func(ctx context.Context, evt Event) {
		logEvent(ctx, log, evt)
	})
}

func SetCustomEmitter(f func(ctx context.Context, evt Event)) {
	if f == nil {
		Emit = func(context.Context, Event) {}
		return
	}
	Emit = func(ctx context.Context, evt Event) {
		if evt.RunID == "" {
			evt.RunID = RunFromContext(ctx)
		}
		f(ctx, evt)
	}
}
