package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"roadmapper/internal/events"
	"roadmapper/internal/jules"
	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
)

// DispatchBuilds hands triaged features (Idea Passed, Bugs) without a
// session to the agent, roadmap by roadmap.
func (e *Engine) DispatchBuilds(ctx context.Context) Report {
	var report Report
	log := e.logger(ctx).With("step", "dispatch")

	waiting, err := e.features.ListAwaitingBuild(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list features awaiting build", "error", err)
		report.Errors++
		return report
	}
	if len(waiting) == 0 {
		return report
	}

	templates, err := e.templates.ListByMode(ctx, models.ModeBuilding)
	if err != nil {
		log.ErrorContext(ctx, "list building templates", "error", err)
		report.Errors++
		return report
	}

	var order []uint
	groups := map[uint][]models.Feature{}
	for _, f := range waiting {
		if _, seen := groups[f.RoadmapID]; !seen {
			order = append(order, f.RoadmapID)
		}
		groups[f.RoadmapID] = append(groups[f.RoadmapID], f)
	}

	branch := e.startingBranch(ctx)
	for _, id := range order {
		report.add(e.dispatchRoadmap(ctx, id, groups[id], templates, branch))
	}
	return report
}

func (e *Engine) dispatchRoadmap(ctx context.Context, roadmapID uint, features []models.Feature, templates []models.PromptTemplate, branch string) Report {
	var report Report
	log := e.logger(ctx).With("step", "dispatch", "roadmap", roadmapID)

	r, err := e.roadmaps.Get(ctx, roadmapID)
	if err != nil {
		log.ErrorContext(ctx, "load roadmap", "error", err)
		report.Errors++
		return report
	}
	if !r.Active {
		report.Skipped += len(features)
		return report
	}
	target, err := e.target(ctx, r)
	if err != nil {
		log.InfoContext(ctx, "skipping roadmap", "reason", err)
		report.Skipped += len(features)
		return report
	}
	if CheckQueue(ctx, e.agent, target.apiKey, log) == QueueBusy {
		log.InfoContext(ctx, "agent queue busy, skipping")
		report.Skipped += len(features)
		return report
	}

	for i := range features {
		if err := e.dispatchFeature(ctx, r, target, templates, &features[i], branch); err != nil {
			log.WarnContext(ctx, "dispatch feature failed", "feature", features[i].ID, "error", err)
			report.Errors++
			continue
		}
		report.Dispatched++
	}
	return report
}

// dispatchFeature starts a Building session for f and binds it. The session
// id and the Doing status are written in a single conditional update.
func (e *Engine) dispatchFeature(ctx context.Context, r *models.Roadmap, target agentTarget, templates []models.PromptTemplate, f *models.Feature, branch string) error {
	sess, err := e.agent.CreateSession(ctx, target.apiKey, jules.CreateSessionRequest{
		Prompt:          BuildPrompt(templates, ContextFor(r), f, models.ModeBuilding),
		Source:          target.source,
		StartingBranch:  branch,
		Title:           f.Title,
		AutomationMode:  jules.AutomationAutoCreatePR,
		RequireApproval: r.RequireApproval,
	})
	if err != nil {
		return transient(err)
	}

	if err := e.features.AttachSession(ctx, f.ID, sess.Name); err != nil {
		e.deleteSession(ctx, target.apiKey, sess.Name)
		if errors.Is(err, repositories.ErrConflict) {
			return fmt.Errorf("%w: feature %d", ErrAlreadyAssigned, f.ID)
		}
		return err
	}

	note := "Assigned to Jules. Session: " + sess.Name
	if sess.URL != "" {
		note += " (" + sess.URL + ")"
	}
	e.annotate(ctx, f.ID, note)

	name := sess.Name
	f.SessionID = &name
	f.Status = models.StatusDoing
	f.AgentStatus = ""

	e.logger(ctx).InfoContext(ctx, "feature dispatched", "roadmap", r.ID, "feature", f.ID, "session", sess.Name)
	events.Emit(ctx, events.NewInfo(events.FeatureDispatched, "Feature dispatched to Jules").
		With("feature", fmt.Sprint(f.ID)).
		With("session", sess.Name))
	return nil
}
