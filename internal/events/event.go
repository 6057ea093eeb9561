package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

const (
	IdeaSessionLaunched  = "events:ideas:launched"
	IdeaSessionCompleted = "events:ideas:completed"
	IdeaSessionFailed    = "events:ideas:failed"
	FeatureDispatched    = "events:feature:dispatched"
	FeatureAwaiting      = "events:feature:awaiting"
	FeatureDone          = "events:feature:done"
	FeatureFailed        = "events:feature:failed"
	FeatureCleaned       = "events:feature:cleaned"
	RoadmapDiscovered    = "events:roadmap:discovered"
)

// Event is a lifecycle notification raised by the orchestration engine.
type Event struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      EventType         `json:"type"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	RunID     string            `json:"runId,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type contextKey string

const runContextKey contextKey = "roadmapper/events/run"

// WithRun returns a derived context annotated with a cadence run id so
// emitted events can be correlated.
func WithRun(ctx context.Context, runID string) context.Context {
	if strings.TrimSpace(runID) == "" {
		return ctx
	}
	return context.WithValue(ctx, runContextKey, runID)
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return uuid.NewString()
}

// RunFromContext extracts the run id associated with ctx.
func RunFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runContextKey).(string); ok {
		return v
	}
	return ""
}

func CreateEvent(eventType EventType, name, message string) Event {
	return Event{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// With returns a copy of e carrying an extra metadata pair.
func (e Event) With(key, value string) Event {
	md := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	e.Metadata = md
	return e
}

func NewInfo(name, message string) Event    { return CreateEvent(EventInfo, name, message) }
func NewWarn(name, message string) Event    { return CreateEvent(EventWarn, name, message) }
func NewError(name, message string) Event   { return CreateEvent(EventError, name, message) }
func NewSuccess(name, message string) Event { return CreateEvent(EventSuccess, name, message) }
