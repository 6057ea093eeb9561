package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"roadmapper/internal/events"
	"roadmapper/internal/jules"
	"roadmapper/internal/models"
)

const defaultClassificationCategory = "Tech"

const discoveryPrompt = "Analyze the repository code structure and dependencies.\n" +
	"Return a JSON object with the following fields:\n" +
	"- description: A concise 1-2 sentence summary of what this project does.\n" +
	"- classifications: A FLAT list of objects. Each object MUST have 'category' and 'value'. Do NOT nest. Limit to top 5 MAJOR technologies.\n" +
	"- initial_ideas: A list of objects, each with 'title' (string), 'explanation' (string), and 'type' (string, e.g. 'Feature' or 'Bug'). Suggest 3-5 initial features based on the codebase.\n" +
	"Do NOT write code. Provide ONLY the JSON."

type Classification struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// DiscoveryResult is the analysis the agent returned, plus what was merged.
type DiscoveryResult struct {
	Description     string           `json:"description,omitempty"`
	Classifications []Classification `json:"classifications,omitempty"`
	InitialIdeas    []Idea           `json:"initialIdeas,omitempty"`

	DescriptionUpdated   bool `json:"descriptionUpdated"`
	ClassificationsAdded int  `json:"classificationsAdded"`
	IdeasCreated         int  `json:"ideasCreated"`
}

// Discover asks the agent to describe a roadmap's repository and waits a
// bounded time for the answer. The session is deleted on every exit path.
func (e *Engine) Discover(ctx context.Context, roadmapID uint) (*DiscoveryResult, error) {
	log := e.logger(ctx).With("step", "discover", "roadmap", roadmapID)

	r, err := e.roadmaps.Get(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	target, err := e.target(ctx, r)
	if err != nil {
		return nil, err
	}

	sess, err := e.agent.CreateSession(ctx, target.apiKey, jules.CreateSessionRequest{
		Prompt:         discoveryPrompt,
		Source:         target.source,
		StartingBranch: e.startingBranch(ctx),
		Title:          "Discovery: " + r.Title,
		AutomationMode: jules.AutomationUnspecified,
	})
	if err != nil {
		return nil, fmt.Errorf("start discovery session: %w", transient(err))
	}
	defer e.deleteSession(context.WithoutCancel(ctx), target.apiKey, sess.Name)

	for attempt := 1; attempt <= e.opts.DiscoveryAttempts; attempt++ {
		if err := e.sleep(ctx, e.opts.DiscoveryInterval); err != nil {
			return nil, err
		}
		activities, err := e.agent.ListActivities(ctx, target.apiKey, sess.Name)
		if err != nil {
			log.DebugContext(ctx, "discovery poll failed", "attempt", attempt, "error", err)
			continue
		}
		msg, ok := jules.LatestAgentMessage(activities)
		if !ok {
			continue
		}
		result, ok := parseDiscovery(msg)
		if !ok {
			continue
		}
		if err := e.applyDiscovery(ctx, r, result); err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "discovery finished",
			"description_updated", result.DescriptionUpdated,
			"classifications_added", result.ClassificationsAdded,
			"ideas", result.IdeasCreated)
		events.Emit(ctx, events.NewSuccess(events.RoadmapDiscovered, "Roadmap discovery finished").
			With("roadmap", fmt.Sprint(r.ID)))
		return result, nil
	}
	return nil, fmt.Errorf("%w after %d polls", ErrDiscoveryTimeout, e.opts.DiscoveryAttempts)
}

// parseDiscovery accepts the first JSON object mentioning a description or
// classifications.
func parseDiscovery(text string) (*DiscoveryResult, bool) {
	obj, err := outermostObject(text)
	if err != nil {
		return nil, false
	}
	desc := obj.Get("description")
	classes := obj.Get("classifications")
	if !desc.Exists() && !classes.Exists() {
		return nil, false
	}

	result := &DiscoveryResult{Description: strings.TrimSpace(desc.String())}
	classes.ForEach(func(_, c gjson.Result) bool {
		value := strings.TrimSpace(c.Get("value").String())
		if value == "" {
			return true
		}
		category := strings.TrimSpace(c.Get("category").String())
		if category == "" {
			category = defaultClassificationCategory
		}
		result.Classifications = append(result.Classifications, Classification{Category: category, Value: value})
		return true
	})
	result.InitialIdeas = ideasFrom(obj.Get("initial_ideas"))
	return result, true
}

func (e *Engine) applyDiscovery(ctx context.Context, r *models.Roadmap, result *DiscoveryResult) error {
	if result.Description != "" {
		updated, err := e.roadmaps.SetDescriptionIfEmpty(ctx, r.ID, result.Description)
		if err != nil {
			return err
		}
		result.DescriptionUpdated = updated
	}

	var fresh []models.RoadmapClassification
	for _, c := range result.Classifications {
		if r.HasClassification(c.Value) {
			continue
		}
		added := models.RoadmapClassification{RoadmapID: r.ID, Category: c.Category, Value: c.Value}
		r.Classifications = append(r.Classifications, added)
		fresh = append(fresh, added)
	}
	if len(fresh) > 0 {
		if err := e.roadmaps.AddClassifications(ctx, r.ID, fresh); err != nil {
			return err
		}
		result.ClassificationsAdded = len(fresh)
	}

	if len(result.InitialIdeas) > 0 {
		features := make([]models.Feature, 0, len(result.InitialIdeas))
		for _, idea := range result.InitialIdeas {
			features = append(features, idea.Feature(r.ID, ""))
		}
		if err := e.features.CreateBatch(ctx, features); err != nil {
			return err
		}
		result.IdeasCreated = len(features)
	}
	return nil
}
