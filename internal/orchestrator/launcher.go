package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"roadmapper/internal/events"
	"roadmapper/internal/jules"
	"roadmapper/internal/models"
)

// LaunchIdeaSessions starts one ideation session per (roadmap, Planning
// template) pair that has nothing outstanding.
func (e *Engine) LaunchIdeaSessions(ctx context.Context) Report {
	var report Report
	log := e.logger(ctx).With("step", "launch")

	templates, err := e.templates.ListByMode(ctx, models.ModePlanning)
	if err != nil {
		log.ErrorContext(ctx, "list planning templates", "error", err)
		report.Errors++
		return report
	}
	if len(templates) == 0 {
		log.DebugContext(ctx, "no planning templates configured")
		return report
	}

	roadmaps, err := e.roadmaps.ListConfigured(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list roadmaps", "error", err)
		report.Errors++
		return report
	}

	branch := e.startingBranch(ctx)
	for i := range roadmaps {
		report.add(e.launchForRoadmap(ctx, &roadmaps[i], templates, branch))
	}
	return report
}

func (e *Engine) launchForRoadmap(ctx context.Context, r *models.Roadmap, templates []models.PromptTemplate, branch string) Report {
	var report Report
	log := e.logger(ctx).With("step", "launch", "roadmap", r.ID)

	target, err := e.target(ctx, r)
	if err != nil {
		log.InfoContext(ctx, "skipping roadmap", "reason", err)
		report.Skipped++
		return report
	}

	pending, err := e.features.HasPendingAIIdeas(ctx, r.ID)
	if err != nil {
		log.ErrorContext(ctx, "check pending ideas", "error", err)
		report.Errors++
		return report
	}
	if pending {
		log.DebugContext(ctx, "unresolved idea batch exists, skipping")
		report.Skipped++
		return report
	}

	if CheckQueue(ctx, e.agent, target.apiKey, log) == QueueBusy {
		log.InfoContext(ctx, "agent queue busy, skipping")
		report.Skipped++
		return report
	}

	existing, err := e.features.ListByRoadmap(ctx, r.ID)
	if err != nil {
		log.ErrorContext(ctx, "list existing features", "error", err)
		report.Errors++
		return report
	}
	rc := ContextFor(r)

	for _, tpl := range templates {
		switch err := e.launchOne(ctx, r, target, tpl, rc, existing, branch); {
		case err == nil:
			report.Launched++
		case errors.Is(err, errAlreadyPending):
			report.Skipped++
		default:
			log.WarnContext(ctx, "launch idea session failed", "template", tpl.Title, "error", err)
			report.Errors++
		}
	}
	return report
}

var errAlreadyPending = errors.New("idea session already pending")

func (e *Engine) launchOne(ctx context.Context, r *models.Roadmap, target agentTarget, tpl models.PromptTemplate, rc RoadmapContext, existing []models.Feature, branch string) error {
	exists, err := e.ideaSessions.ExistsPending(ctx, r.ID, tpl.Title)
	if err != nil {
		return err
	}
	if exists {
		return errAlreadyPending
	}

	sess, err := e.agent.CreateSession(ctx, target.apiKey, jules.CreateSessionRequest{
		Prompt:         IdeationPrompt(tpl, rc, existing),
		Source:         target.source,
		StartingBranch: branch,
		Title:          tpl.Title,
		AutomationMode: jules.AutomationUnspecified,
	})
	if err != nil {
		return transient(err)
	}

	tracker := &models.IdeaSession{
		RoadmapID:   r.ID,
		SessionID:   sess.Name,
		Status:      models.IdeaSessionPending,
		PromptTitle: tpl.Title,
	}
	if err := e.ideaSessions.Create(ctx, tracker); err != nil {
		// Nothing would ever poll or reclaim the session.
		e.deleteSession(ctx, target.apiKey, sess.Name)
		return fmt.Errorf("persist idea session: %w", err)
	}

	e.logger(ctx).InfoContext(ctx, "idea session launched", "roadmap", r.ID, "template", tpl.Title, "session", sess.Name)
	events.Emit(ctx, events.NewInfo(events.IdeaSessionLaunched, "Idea session launched").
		With("roadmap", fmt.Sprint(r.ID)).
		With("template", tpl.Title).
		With("session", sess.Name))
	return nil
}
