package orchestrator

import (
	"context"
	"log/slog"

	"roadmapper/internal/jules"
)

type QueueStatus int

const (
	QueueSafe QueueStatus = iota
	QueueBusy
)

func (q QueueStatus) String() string {
	if q == QueueBusy {
		return "busy"
	}
	return "safe"
}

// CheckQueue reports Busy when any session visible to apiKey is still
// queued. A failed listing reports Safe so a degraded status endpoint never
// stalls the pipeline; the agent rejects launches it cannot take.
func CheckQueue(ctx context.Context, agent jules.Client, apiKey string, log *slog.Logger) QueueStatus {
	sessions, err := agent.ListSessions(ctx, apiKey)
	if err != nil {
		if log != nil {
			log.WarnContext(ctx, "queue check failed, admitting anyway", "error", err)
		}
		return QueueSafe
	}
	for _, s := range sessions {
		if st, err := jules.ParseState(s.State); err == nil && st == jules.StateQueued {
			return QueueBusy
		}
	}
	return QueueSafe
}
