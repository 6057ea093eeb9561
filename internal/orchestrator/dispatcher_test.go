package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadmapper/internal/jules"
	"roadmapper/internal/models"
)

const implementText = "Implement with {stack}. Tags: {feature_tags}\n{tag_guidelines}"

func TestDispatchBuilds_BindsSessionAndMovesToDoing(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	r.RequireApproval = true
	require.NoError(t, h.roadmaps.Update(context.Background(), r))
	h.template(t, "Lead Architect: Implementation", models.KindFeature, models.ModeBuilding, implementText)

	passed := h.feature(t, models.Feature{
		RoadmapID: r.ID, Title: "Dark mode", Explanation: "Add a theme toggle.", Status: models.StatusIdeaPassed,
		Tags: models.NewTags([]string{"UI"}),
	})
	idea := h.feature(t, models.Feature{RoadmapID: r.ID, Title: "Untriaged", Status: models.StatusIdeas})

	var reqs []jules.CreateSessionRequest
	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		reqs = append(reqs, req)
		return &jules.Session{Name: "sessions/b1", URL: "https://jules.google.com/session/b1"}, nil
	}

	report := h.engine.DispatchBuilds(context.Background())
	assert.Equal(t, 1, report.Dispatched)

	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "Dark mode", req.Title)
	assert.Equal(t, jules.AutomationAutoCreatePR, req.AutomationMode)
	assert.True(t, req.RequireApproval)
	assert.Equal(t, "sources/github/acme/shop", req.Source)
	assert.Contains(t, req.Prompt, "Implement with Go. Tags: UI")
	assert.Contains(t, req.Prompt, "- UI: Focus on visual fidelity")
	assert.Contains(t, req.Prompt, "Task: Dark mode\nDetails: Add a theme toggle.")
	assert.Contains(t, req.Prompt, "IMPLEMENTATION MODE")

	got := h.reload(t, passed.ID)
	assert.Equal(t, models.StatusDoing, got.Status)
	assert.Equal(t, "sessions/b1", got.Session())
	assert.Equal(t, []string{"Assigned to Jules. Session: sessions/b1 (https://jules.google.com/session/b1)"}, h.comments(t, passed.ID))

	untouched := h.reload(t, idea.ID)
	assert.Equal(t, models.StatusIdeas, untouched.Status)
	assert.False(t, untouched.HasSession())
}

func TestDispatchBuilds_EveryDoingFeatureHoldsASession(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	other := h.roadmap(t, "blog")
	ids := []uint{
		h.feature(t, models.Feature{RoadmapID: r.ID, Title: "A", Status: models.StatusIdeaPassed}).ID,
		h.feature(t, models.Feature{RoadmapID: other.ID, Title: "B", Kind: models.KindBug, Status: models.StatusBugs}).ID,
		h.feature(t, models.Feature{RoadmapID: r.ID, Title: "C", Status: models.StatusBugs}).ID,
	}

	n := 0
	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		n++
		if req.Title == "C" {
			return nil, assert.AnError
		}
		return &jules.Session{Name: "sessions/" + req.Title}, nil
	}

	report := h.engine.DispatchBuilds(context.Background())
	assert.Equal(t, 2, report.Dispatched)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 3, n)

	for _, id := range ids {
		f := h.reload(t, id)
		if f.Status == models.StatusDoing {
			assert.True(t, f.HasSession(), "feature %d is Doing without a session", id)
		} else {
			assert.False(t, f.HasSession())
		}
	}
	assert.Equal(t, models.StatusBugs, h.reload(t, ids[2]).Status)
}

func TestDispatchBuilds_FallbackPromptWithoutTemplate(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	h.feature(t, models.Feature{RoadmapID: r.ID, Title: "Null deref", Kind: models.KindBug, Status: models.StatusBugs})

	var prompt string
	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		prompt = req.Prompt
		return &jules.Session{Name: "sessions/f"}, nil
	}

	h.engine.DispatchBuilds(context.Background())
	assert.Equal(t, "Task: Null deref\nDetails: No details provided.\nType: Bug"+fallbackBuildingDirective, prompt)
}

func TestDispatchBuilds_SkipsInactiveRoadmap(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	r.Active = false
	require.NoError(t, h.roadmaps.Update(context.Background(), r))
	f := h.feature(t, models.Feature{RoadmapID: r.ID, Title: "A", Status: models.StatusIdeaPassed})

	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		t.Fatal("inactive roadmaps must not dispatch")
		return nil, nil
	}

	report := h.engine.DispatchBuilds(context.Background())
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, models.StatusIdeaPassed, h.reload(t, f.ID).Status)
}

func TestDispatchBuilds_QueueBusySkipsRoadmap(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	h.feature(t, models.Feature{RoadmapID: r.ID, Title: "A", Status: models.StatusIdeaPassed})
	h.feature(t, models.Feature{RoadmapID: r.ID, Title: "B", Status: models.StatusIdeaPassed})

	h.agent.ListSessionsFunc = func(ctx context.Context, apiKey string) ([]jules.Session, error) {
		return []jules.Session{{State: "QUEUED"}}, nil
	}
	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		t.Fatal("busy queue must not dispatch")
		return nil, nil
	}

	report := h.engine.DispatchBuilds(context.Background())
	assert.Equal(t, 2, report.Skipped)
	assert.Zero(t, report.Dispatched)
}

func TestDispatchFeature_LostRaceDeletesNewSession(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	f := h.feature(t, models.Feature{RoadmapID: r.ID, Title: "A", Status: models.StatusIdeaPassed})
	// Another worker attached a session after f was read.
	require.NoError(t, h.features.AttachSession(context.Background(), f.ID, "sessions/first"))

	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		return &jules.Session{Name: "sessions/second"}, nil
	}
	target, err := h.engine.target(context.Background(), r)
	require.NoError(t, err)

	err = h.engine.dispatchFeature(context.Background(), r, target, nil, f, "main")
	assert.True(t, errors.Is(err, ErrAlreadyAssigned))
	assert.Equal(t, []string{"sessions/second"}, h.deleted)
	assert.Equal(t, "sessions/first", h.reload(t, f.ID).Session())
}
