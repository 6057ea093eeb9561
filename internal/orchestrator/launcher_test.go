package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadmapper/internal/jules"
	"roadmapper/internal/models"
)

const scanText = "Scan {stack} for vulnerabilities."

func TestLaunchIdeaSessions_CreatesOnePendingTracker(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)
	h.template(t, "Guardian Implementation Fix", models.KindBug, models.ModeBuilding, "fix it")
	h.feature(t, models.Feature{RoadmapID: r.ID, Title: "SQL injection in search", Kind: models.KindBug, Status: models.StatusDone})

	var reqs []jules.CreateSessionRequest
	var apiKeys []string
	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		reqs = append(reqs, req)
		apiKeys = append(apiKeys, apiKey)
		return &jules.Session{Name: "sessions/101", State: "QUEUED"}, nil
	}

	report := h.engine.LaunchIdeaSessions(context.Background())
	assert.Equal(t, 1, report.Launched)
	assert.Zero(t, report.Errors)

	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "key-shop", apiKeys[0])
	assert.Equal(t, "Security Sentinel Scan", req.Title)
	assert.Equal(t, "sources/github/acme/shop", req.Source)
	assert.Equal(t, DefaultStartingBranch, req.StartingBranch)
	assert.Equal(t, jules.AutomationUnspecified, req.AutomationMode)
	assert.False(t, req.RequireApproval)
	assert.Contains(t, req.Prompt, "Roadmap Description: An online shop.")
	assert.Contains(t, req.Prompt, "Scan Go for vulnerabilities.")
	assert.Contains(t, req.Prompt, "- [Done] SQL injection in search")
	assert.Contains(t, req.Prompt, "brainstorming/ideation only")

	pending, err := h.ideas.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, r.ID, pending[0].RoadmapID)
	assert.Equal(t, "sessions/101", pending[0].SessionID)
	assert.Equal(t, "Security Sentinel Scan", pending[0].PromptTitle)
	assert.Equal(t, models.IdeaSessionPending, pending[0].Status)
}

func TestLaunchIdeaSessions_UsesStoredStartingBranch(t *testing.T) {
	h := newHarness(t, Options{})
	h.roadmap(t, "shop")
	h.template(t, "Lead Architect: Feature Ideation", models.KindFeature, models.ModePlanning, "Ideas for {stack}")
	require.NoError(t, h.settings.Update(context.Background(), &models.RoadmapSettings{ID: 1, StartingBranch: "develop"}))

	var branch string
	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		branch = req.StartingBranch
		return &jules.Session{Name: "sessions/1"}, nil
	}

	h.engine.LaunchIdeaSessions(context.Background())
	assert.Equal(t, "develop", branch)
}

func TestLaunchIdeaSessions_SecondRunDoesNotDuplicate(t *testing.T) {
	h := newHarness(t, Options{})
	h.roadmap(t, "shop")
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)

	creates := 0
	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		creates++
		return &jules.Session{Name: "sessions/" + string(rune('a'+creates))}, nil
	}

	first := h.engine.LaunchIdeaSessions(context.Background())
	second := h.engine.LaunchIdeaSessions(context.Background())

	assert.Equal(t, 1, first.Launched)
	assert.Zero(t, second.Launched)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 1, creates)

	pending, err := h.ideas.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestLaunchIdeaSessions_SkipsRoadmapWithUnreviewedBatch(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)
	h.feature(t, models.Feature{RoadmapID: r.ID, Title: "Old idea", Status: models.StatusIdeas, AIGenerated: true})

	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		t.Fatal("no session may be created while a batch is unreviewed")
		return nil, nil
	}

	report := h.engine.LaunchIdeaSessions(context.Background())
	assert.Zero(t, report.Launched)
	assert.Equal(t, 1, report.Skipped)
}

func TestLaunchIdeaSessions_ManualIdeasDoNotBlock(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)
	h.feature(t, models.Feature{RoadmapID: r.ID, Title: "Manual idea", Status: models.StatusIdeas})

	report := h.engine.LaunchIdeaSessions(context.Background())
	assert.Equal(t, 1, report.Launched)
}

func TestLaunchIdeaSessions_QueueBusy(t *testing.T) {
	h := newHarness(t, Options{})
	h.roadmap(t, "shop")
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)

	h.agent.ListSessionsFunc = func(ctx context.Context, apiKey string) ([]jules.Session, error) {
		return []jules.Session{{Name: "sessions/x", State: "QUEUED"}}, nil
	}
	creates := 0
	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		creates++
		return &jules.Session{Name: "sessions/1"}, nil
	}

	report := h.engine.LaunchIdeaSessions(context.Background())
	assert.Zero(t, report.Launched)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, creates)
}

func TestLaunchIdeaSessions_QueueCheckFailureAdmits(t *testing.T) {
	h := newHarness(t, Options{})
	h.roadmap(t, "shop")
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)

	h.agent.ListSessionsFunc = func(ctx context.Context, apiKey string) ([]jules.Session, error) {
		return nil, assert.AnError
	}

	report := h.engine.LaunchIdeaSessions(context.Background())
	assert.Equal(t, 1, report.Launched)
}

func TestLaunchIdeaSessions_SkipsUnconfiguredRoadmaps(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	delete(h.keys, r.ID)
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)

	unlinked := &models.Roadmap{Title: "unlinked", Active: true}
	require.NoError(t, h.roadmaps.Create(context.Background(), unlinked))
	h.keys[unlinked.ID] = "key"

	creates := 0
	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		creates++
		return &jules.Session{Name: "sessions/1"}, nil
	}

	report := h.engine.LaunchIdeaSessions(context.Background())
	assert.Zero(t, report.Launched)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, creates)
}

func TestLaunchIdeaSessions_IgnoresRoadmapCreatedInactive(t *testing.T) {
	h := newHarness(t, Options{})
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)

	paused := &models.Roadmap{Title: "paused", SourceRepository: "sources/github/acme/paused", Active: false}
	require.NoError(t, h.roadmaps.Create(context.Background(), paused))
	h.keys[paused.ID] = "key-paused"

	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		t.Fatal("inactive roadmaps must not launch")
		return nil, nil
	}

	report := h.engine.LaunchIdeaSessions(context.Background())
	assert.Zero(t, report.Launched)
}

func TestLaunchIdeaSessions_AgentFailureLeavesNoTracker(t *testing.T) {
	h := newHarness(t, Options{})
	h.roadmap(t, "shop")
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)

	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		return nil, assert.AnError
	}

	report := h.engine.LaunchIdeaSessions(context.Background())
	assert.Zero(t, report.Launched)
	assert.Equal(t, 1, report.Errors)

	pending, err := h.ideas.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLaunchIdeaSessions_TrackerFailureDeletesSession(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.roadmap(t, "shop")
	h.template(t, "Security Sentinel Scan", models.KindBug, models.ModePlanning, scanText)
	// An older tracker already owns the session name the agent hands back.
	require.NoError(t, h.ideas.Create(context.Background(), &models.IdeaSession{
		RoadmapID: r.ID, SessionID: "sessions/dup", Status: models.IdeaSessionCompleted, PromptTitle: "Other",
	}))

	h.agent.CreateSessionFunc = func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
		return &jules.Session{Name: "sessions/dup"}, nil
	}

	report := h.engine.LaunchIdeaSessions(context.Background())
	assert.Zero(t, report.Launched)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, []string{"sessions/dup"}, h.deleted)
}
