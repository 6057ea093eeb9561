package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roadmapper/internal/events"
	"roadmapper/internal/jules"
	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
)

// PollIdeaSessions advances every Pending tracker at most one step. It
// never waits for the agent: trackers without an answer stay Pending.
func (e *Engine) PollIdeaSessions(ctx context.Context) Report {
	var report Report
	log := e.logger(ctx).With("step", "poll")

	trackers, err := e.ideaSessions.ListPending(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list pending idea sessions", "error", err)
		report.Errors++
		return report
	}

	cache := newRoadmapCache(e.roadmaps)
	for i := range trackers {
		report.add(e.pollTracker(ctx, cache, &trackers[i]))
	}
	return report
}

func (e *Engine) pollTracker(ctx context.Context, cache *roadmapCache, t *models.IdeaSession) Report {
	var report Report
	log := e.logger(ctx).With("step", "poll", "tracker", t.ID, "session", t.SessionID)

	roadmap, roadmapErr := cache.get(ctx, t.RoadmapID)

	if age := e.now().Sub(t.CreatedAt); age > e.opts.IdeaSessionTimeout {
		note := fmt.Sprintf("%v after %s", ErrTimeout, age.Round(time.Second))
		if err := e.ideaSessions.MarkError(ctx, t.ID, note); err != nil {
			log.ErrorContext(ctx, "mark timed out tracker", "error", err)
			report.Errors++
			return report
		}
		if roadmapErr == nil {
			e.deleteSession(ctx, e.credential(ctx, roadmap), t.SessionID)
		}
		log.WarnContext(ctx, "idea session timed out", "age", age)
		events.Emit(ctx, events.NewWarn(events.IdeaSessionFailed, "Idea session timed out").With("session", t.SessionID))
		report.TrackersTimedOut++
		return report
	}

	if roadmapErr != nil {
		if errors.Is(roadmapErr, repositories.ErrNotFound) {
			e.failTracker(ctx, t, "roadmap no longer exists", &report)
			return report
		}
		log.ErrorContext(ctx, "load roadmap", "error", roadmapErr)
		report.Errors++
		return report
	}

	apiKey := e.credential(ctx, roadmap)
	if apiKey == "" {
		log.InfoContext(ctx, "no credential, leaving pending", "reason", ErrConfiguration)
		report.Skipped++
		return report
	}

	activities, err := e.agent.ListActivities(ctx, apiKey, t.SessionID)
	if err != nil {
		log.WarnContext(ctx, "fetch activities, retrying next tick", "error", transient(err))
		report.Errors++
		return report
	}
	msg, ok := jules.LatestAgentMessage(activities)
	if !ok {
		log.DebugContext(ctx, "no agent message yet")
		return report
	}

	ideas, err := decodeIdeas(msg)
	if err != nil {
		e.failTracker(ctx, t, err.Error(), &report)
		return report
	}

	features := make([]models.Feature, 0, len(ideas))
	for _, idea := range ideas {
		features = append(features, idea.Feature(t.RoadmapID, t.PromptTitle))
	}
	if err := e.ideaSessions.Complete(ctx, t.ID, features); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			log.InfoContext(ctx, "tracker already resolved elsewhere")
			return report
		}
		e.failTracker(ctx, t, fmt.Sprintf("persist ideas: %v", err), &report)
		return report
	}

	e.deleteSession(ctx, apiKey, t.SessionID)
	log.InfoContext(ctx, "idea session completed", "ideas", len(features))
	events.Emit(ctx, events.NewSuccess(events.IdeaSessionCompleted, "Idea session completed").
		With("session", t.SessionID).
		With("ideas", fmt.Sprint(len(features))))
	report.TrackersCompleted++
	report.IdeasCreated += len(features)
	return report
}

func (e *Engine) failTracker(ctx context.Context, t *models.IdeaSession, note string, report *Report) {
	log := e.logger(ctx).With("tracker", t.ID, "session", t.SessionID)
	if err := e.ideaSessions.MarkError(ctx, t.ID, note); err != nil {
		log.ErrorContext(ctx, "mark tracker error", "error", err)
		report.Errors++
		return
	}
	log.WarnContext(ctx, "idea session failed", "note", note)
	events.Emit(ctx, events.NewError(events.IdeaSessionFailed, note).With("session", t.SessionID))
	report.TrackersFailed++
}
