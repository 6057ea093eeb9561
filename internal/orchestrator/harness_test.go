package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roadmapper/internal/database"
	"roadmapper/internal/jules"
	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
	"roadmapper/internal/tests/mocks"
)

type credentialsFunc func(ctx context.Context, r *models.Roadmap) string

func (f credentialsFunc) Resolve(ctx context.Context, r *models.Roadmap) string { return f(ctx, r) }

type harness struct {
	engine    *Engine
	agent     *mocks.JulesClientMock
	roadmaps  repositories.RoadmapRepository
	features  repositories.FeatureRepository
	ideas     repositories.IdeaSessionRepository
	templates repositories.TemplateRepository
	settings  repositories.SettingsRepository
	keys      map[uint]string
	deleted   []string
}

func newHarness(t *testing.T, opts Options, options ...Option) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.Init(database.Config{Path: filepath.Join(t.TempDir(), "test.db"), Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	h := &harness{
		roadmaps:  repositories.NewRoadmapRepository(db),
		features:  repositories.NewFeatureRepository(db),
		ideas:     repositories.NewIdeaSessionRepository(db),
		templates: repositories.NewTemplateRepository(db),
		settings:  repositories.NewSettingsRepository(db),
		keys:      map[uint]string{},
	}
	h.agent = &mocks.JulesClientMock{
		DeleteSessionFunc: func(ctx context.Context, apiKey, sessionID string) error {
			h.deleted = append(h.deleted, sessionID)
			return nil
		},
	}
	h.engine = NewEngine(Deps{
		Roadmaps:     h.roadmaps,
		Features:     h.features,
		IdeaSessions: h.ideas,
		Templates:    h.templates,
		Settings:     h.settings,
		Agent:        h.agent,
		Credentials: credentialsFunc(func(_ context.Context, r *models.Roadmap) string {
			return h.keys[r.ID]
		}),
		Logger: log,
	}, opts, options...)
	return h
}

// roadmap stores an active, credentialed roadmap.
func (h *harness) roadmap(t *testing.T, title string) *models.Roadmap {
	t.Helper()
	r := &models.Roadmap{
		Title:            title,
		SourceRepository: "sources/github/acme/" + title,
		Description:      "An online shop.",
		Active:           true,
		Classifications: []models.RoadmapClassification{
			{Category: models.CategoryStack, Value: "Go"},
		},
	}
	require.NoError(t, h.roadmaps.Create(context.Background(), r))
	h.keys[r.ID] = "key-" + title
	return r
}

func (h *harness) template(t *testing.T, title string, kind models.FeatureKind, mode models.PromptMode, text string) models.PromptTemplate {
	t.Helper()
	tpl := models.PromptTemplate{Title: title, Kind: kind, Mode: mode, Text: text}
	require.NoError(t, h.templates.Create(context.Background(), &tpl))
	return tpl
}

func (h *harness) feature(t *testing.T, f models.Feature) *models.Feature {
	t.Helper()
	if f.Kind == "" {
		f.Kind = models.KindFeature
	}
	require.NoError(t, h.features.Create(context.Background(), &f))
	return &f
}

func (h *harness) reload(t *testing.T, id uint) *models.Feature {
	t.Helper()
	f, err := h.features.Get(context.Background(), id)
	require.NoError(t, err)
	return f
}

func (h *harness) comments(t *testing.T, id uint) []string {
	t.Helper()
	list, err := h.features.ListComments(context.Background(), id)
	require.NoError(t, err)
	var out []string
	for _, c := range list {
		out = append(out, c.Body)
	}
	return out
}

func agentSaid(text string) []jules.Activity {
	return []jules.Activity{
		{Originator: "user", Description: "prompt sent"},
		{Originator: "agent", AgentMessaged: &jules.AgentMessaged{AgentMessage: text}},
	}
}

func ptr(s string) *string { return &s }

func fixedClock(at time.Time) Option {
	return WithClock(func() time.Time { return at })
}
