package events

import (
	"context"
	"log/slog"
)

func logEvent(ctx context.Context, log *slog.Logger, event Event) {
	attrs := []any{"event", event.Name, "event_id", event.ID}
	if event.RunID != "" {
		attrs = append(attrs, "run_id", event.RunID)
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, k, v)
	}

	switch event.Type {
	case EventError:
		log.ErrorContext(ctx, event.Message, attrs...)
	case EventWarn:
		log.WarnContext(ctx, event.Message, attrs...)
	default:
		log.InfoContext(ctx, event.Message, attrs...)
	}
}
