package orchestrator

import (
	"context"
	"fmt"

	"roadmapper/internal/jules"
	"roadmapper/internal/models"
)

// AssignFeature dispatches one feature immediately instead of waiting for
// the daily cadence. It applies the dispatcher's guards and reports them as
// errors.
func (e *Engine) AssignFeature(ctx context.Context, featureID uint) (*models.Feature, error) {
	f, err := e.features.Get(ctx, featureID)
	if err != nil {
		return nil, err
	}
	if f.HasSession() {
		return nil, fmt.Errorf("%w: feature %d", ErrAlreadyAssigned, f.ID)
	}
	switch f.Status {
	case models.StatusIdeas, models.StatusIdeaPassed, models.StatusBugs:
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotAssignable, f.Status)
	}

	r, err := e.roadmaps.Get(ctx, f.RoadmapID)
	if err != nil {
		return nil, err
	}
	target, err := e.target(ctx, r)
	if err != nil {
		return nil, err
	}
	if CheckQueue(ctx, e.agent, target.apiKey, e.logger(ctx)) == QueueBusy {
		return nil, ErrQueueBusy
	}

	templates, err := e.templates.ListByMode(ctx, models.ModeBuilding)
	if err != nil {
		return nil, err
	}
	if err := e.dispatchFeature(ctx, r, target, templates, f, e.startingBranch(ctx)); err != nil {
		return nil, err
	}
	return f, nil
}

// SendMessage relays text to the session working on a feature.
func (e *Engine) SendMessage(ctx context.Context, featureID uint, text string) error {
	f, apiKey, err := e.sessionOf(ctx, featureID)
	if err != nil {
		return err
	}
	if err := e.agent.SendMessage(ctx, apiKey, f.Session(), text); err != nil {
		return transient(err)
	}
	// Whatever the agent was waiting for has been answered.
	if err := e.features.UpdateByID(ctx, f.ID, map[string]interface{}{"agent_status": ""}); err != nil {
		return err
	}
	e.annotate(ctx, f.ID, "Message sent to Jules: "+text)
	return nil
}

// VotePlan answers a plan awaiting approval.
func (e *Engine) VotePlan(ctx context.Context, featureID uint, action jules.PlanAction) error {
	f, apiKey, err := e.sessionOf(ctx, featureID)
	if err != nil {
		return err
	}
	if err := e.agent.VotePlan(ctx, apiKey, f.Session(), action); err != nil {
		return err
	}
	if err := e.features.UpdateByID(ctx, f.ID, map[string]interface{}{"agent_status": ""}); err != nil {
		return err
	}
	e.annotate(ctx, f.ID, fmt.Sprintf("Plan vote sent to Jules: %s", action))
	return nil
}

func (e *Engine) sessionOf(ctx context.Context, featureID uint) (*models.Feature, string, error) {
	f, err := e.features.Get(ctx, featureID)
	if err != nil {
		return nil, "", err
	}
	if !f.HasSession() {
		return nil, "", fmt.Errorf("%w: feature %d", ErrNoSession, f.ID)
	}
	r, err := e.roadmaps.Get(ctx, f.RoadmapID)
	if err != nil {
		return nil, "", err
	}
	apiKey := e.credential(ctx, r)
	if apiKey == "" {
		return nil, "", fmt.Errorf("%w: roadmap %d has no agent credential", ErrConfiguration, r.ID)
	}
	return f, apiKey, nil
}
