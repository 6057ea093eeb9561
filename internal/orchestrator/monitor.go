package orchestrator

import (
	"context"
	"fmt"

	"roadmapper/internal/events"
	"roadmapper/internal/jules"
	"roadmapper/internal/models"
)

const (
	noteAwaitingFeedback = "Jules is waiting for your feedback. Please open the session to reply."
	noteAwaitingPlan     = "Jules Plan is ready for review. Please open the session to approve."
)

// MonitorBuilds reconciles every Doing feature with its session's state.
func (e *Engine) MonitorBuilds(ctx context.Context) Report {
	var report Report
	log := e.logger(ctx).With("step", "monitor")

	inFlight, err := e.features.ListInFlight(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list in-flight features", "error", err)
		report.Errors++
		return report
	}

	cache := newRoadmapCache(e.roadmaps)
	for i := range inFlight {
		report.add(e.checkFeature(ctx, cache, &inFlight[i]))
	}
	return report
}

func (e *Engine) checkFeature(ctx context.Context, cache *roadmapCache, f *models.Feature) Report {
	var report Report
	log := e.logger(ctx).With("step", "monitor", "feature", f.ID, "session", f.Session())

	r, err := cache.get(ctx, f.RoadmapID)
	if err != nil {
		log.ErrorContext(ctx, "load roadmap", "error", err)
		report.Errors++
		return report
	}
	apiKey := e.credential(ctx, r)
	if apiKey == "" {
		report.Skipped++
		return report
	}

	sess, err := e.agent.GetSession(ctx, apiKey, f.Session())
	if err != nil {
		log.WarnContext(ctx, "fetch session, retrying next tick", "error", transient(err))
		report.Errors++
		return report
	}

	state, err := jules.ParseState(sess.State)
	if err != nil {
		log.WarnContext(ctx, "unmapped session state, leaving feature untouched", "error", err)
		report.Skipped++
		return report
	}

	switch {
	case state.IsAwaiting():
		if f.AgentStatus == string(state) {
			return report
		}
		note := noteAwaitingFeedback
		if state == jules.StateAwaitingPlanApproval {
			note = noteAwaitingPlan
		}
		if err := e.features.UpdateByID(ctx, f.ID, map[string]interface{}{"agent_status": string(state)}); err != nil {
			log.ErrorContext(ctx, "record agent status", "error", err)
			report.Errors++
			return report
		}
		e.annotate(ctx, f.ID, note)
		events.Emit(ctx, events.NewWarn(events.FeatureAwaiting, note).With("feature", fmt.Sprint(f.ID)))
		report.Annotated++

	case state.IsFailed():
		err := e.features.UpdateByID(ctx, f.ID, map[string]interface{}{
			"status":       models.StatusError,
			"agent_status": string(state),
		})
		if err != nil {
			log.ErrorContext(ctx, "mark feature error", "error", err)
			report.Errors++
			return report
		}
		note := fmt.Sprintf("Jules Session Failed/Cancelled. State: %s. Please open session to investigate.", state)
		e.annotate(ctx, f.ID, note)
		log.WarnContext(ctx, "feature failed", "state", state)
		events.Emit(ctx, events.NewError(events.FeatureFailed, note).With("feature", fmt.Sprint(f.ID)))
		report.Failed++

	default:
		if url, ok := sess.PullRequestURL(); ok {
			return e.completeFeature(ctx, f, url)
		}
		// Leaving an awaiting state re-arms its notice.
		if f.AgentStatus != string(state) {
			if err := e.features.UpdateByID(ctx, f.ID, map[string]interface{}{"agent_status": string(state)}); err != nil {
				log.WarnContext(ctx, "record agent status", "error", err)
			}
		}
	}
	return report
}

func (e *Engine) completeFeature(ctx context.Context, f *models.Feature, url string) Report {
	var report Report
	log := e.logger(ctx).With("step", "monitor", "feature", f.ID, "session", f.Session())

	err := e.features.UpdateByID(ctx, f.ID, map[string]interface{}{
		"status":           models.StatusDone,
		"pull_request_url": url,
		"agent_status":     string(jules.StateCompleted),
	})
	if err != nil {
		log.ErrorContext(ctx, "mark feature done", "error", err)
		report.Errors++
		return report
	}
	e.annotate(ctx, f.ID, "Jules completed the task. PR: "+url)
	log.InfoContext(ctx, "feature done", "pull_request", url)
	events.Emit(ctx, events.NewSuccess(events.FeatureDone, "Pull request opened").
		With("feature", fmt.Sprint(f.ID)).
		With("pull_request", url))
	report.Completed++
	return report
}

func (e *Engine) annotate(ctx context.Context, featureID uint, body string) {
	if err := e.features.AddComment(ctx, featureID, body); err != nil {
		e.logger(ctx).WarnContext(ctx, "annotate feature", "feature", featureID, "error", err)
	}
}
