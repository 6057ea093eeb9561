package repositories

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"roadmapper/internal/database"
	"roadmapper/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(database.Config{
		Path:   filepath.Join(t.TempDir(), "repo.db"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedRoadmap(t *testing.T, repo RoadmapRepository, r models.Roadmap) *models.Roadmap {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &r))
	return &r
}

func TestRoadmapRepository_ListConfigured(t *testing.T) {
	repo := NewRoadmapRepository(openTestDB(t))
	ctx := context.Background()

	linked := seedRoadmap(t, repo, models.Roadmap{Title: "linked", SourceRepository: "acme/shop", Active: true})
	seedRoadmap(t, repo, models.Roadmap{Title: "unlinked", Active: true})
	paused := seedRoadmap(t, repo, models.Roadmap{Title: "paused", SourceRepository: "acme/blog", Active: true})
	paused.Active = false
	require.NoError(t, repo.Update(ctx, paused))

	list, err := repo.ListConfigured(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, linked.ID, list[0].ID)
}

func TestRoadmapRepository_CreateKeepsInactive(t *testing.T) {
	repo := NewRoadmapRepository(openTestDB(t))
	ctx := context.Background()

	paused := seedRoadmap(t, repo, models.Roadmap{Title: "paused", SourceRepository: "acme/blog", Active: false})

	got, err := repo.Get(ctx, paused.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	list, err := repo.ListConfigured(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRoadmapRepository_GetNotFound(t *testing.T) {
	repo := NewRoadmapRepository(openTestDB(t))
	_, err := repo.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoadmapRepository_SetDescriptionIfEmpty(t *testing.T) {
	repo := NewRoadmapRepository(openTestDB(t))
	ctx := context.Background()
	r := seedRoadmap(t, repo, models.Roadmap{Title: "shop", Description: "  "})

	changed, err := repo.SetDescriptionIfEmpty(ctx, r.ID, "First.")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.SetDescriptionIfEmpty(ctx, r.ID, "Second.")
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "First.", got.Description)
}

func TestRoadmapRepository_AddClassifications(t *testing.T) {
	repo := NewRoadmapRepository(openTestDB(t))
	ctx := context.Background()
	r := seedRoadmap(t, repo, models.Roadmap{Title: "shop", Classifications: []models.RoadmapClassification{{Category: "Stack", Value: "Go"}}})

	require.NoError(t, repo.AddClassifications(ctx, r.ID, []models.RoadmapClassification{
		{ID: 99, RoadmapID: 42, Category: "Platform", Value: "Web"},
	}))

	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Classifications, 2)
	assert.Equal(t, "Go", got.Classifications[0].Value)
	assert.Equal(t, "Web", got.Classifications[1].Value)
	assert.Equal(t, r.ID, got.Classifications[1].RoadmapID)
}

func TestFeatureRepository_AttachSessionIsConditional(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := seedRoadmap(t, NewRoadmapRepository(db), models.Roadmap{Title: "shop"})
	repo := NewFeatureRepository(db)

	f := &models.Feature{RoadmapID: r.ID, Title: "A", Kind: models.KindFeature, Status: models.StatusIdeaPassed, AgentStatus: "stale"}
	require.NoError(t, repo.Create(ctx, f))

	require.NoError(t, repo.AttachSession(ctx, f.ID, "sessions/1"))
	err := repo.AttachSession(ctx, f.ID, "sessions/2")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Error(t, repo.AttachSession(ctx, f.ID, ""))

	got, err := repo.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDoing, got.Status)
	assert.Equal(t, "sessions/1", got.Session())
	assert.Empty(t, got.AgentStatus)

	bySession, err := repo.GetBySession(ctx, "sessions/1")
	require.NoError(t, err)
	assert.Equal(t, f.ID, bySession.ID)

	_, err = repo.GetBySession(ctx, "sessions/none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeatureRepository_Listings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := seedRoadmap(t, NewRoadmapRepository(db), models.Roadmap{Title: "shop"})
	repo := NewFeatureRepository(db)
	session := func(s string) *string { return &s }

	fixtures := []models.Feature{
		{Title: "idea", Status: models.StatusIdeas, AIGenerated: true},
		{Title: "passed", Status: models.StatusIdeaPassed, Tags: models.NewTags([]string{"API", " ", "UI"})},
		{Title: "bug", Kind: models.KindBug, Status: models.StatusBugs},
		{Title: "bug with session", Kind: models.KindBug, Status: models.StatusBugs, SessionID: session("sessions/b")},
		{Title: "doing", Status: models.StatusDoing, SessionID: session("sessions/d")},
		{Title: "archived", Status: models.StatusArchived, SessionID: session("sessions/a")},
		{Title: "archived clean", Status: models.StatusArchived},
	}
	for i := range fixtures {
		fixtures[i].RoadmapID = r.ID
		if fixtures[i].Kind == "" {
			fixtures[i].Kind = models.KindFeature
		}
	}
	require.NoError(t, repo.CreateBatch(ctx, fixtures))

	titles := func(list []models.Feature) []string {
		var out []string
		for _, f := range list {
			out = append(out, f.Title)
		}
		return out
	}

	awaiting, err := repo.ListAwaitingBuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"passed", "bug"}, titles(awaiting))
	assert.Equal(t, []string{"API", "UI"}, awaiting[0].TagNames())

	inFlight, err := repo.ListInFlight(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doing"}, titles(inFlight))

	archived, err := repo.ListArchivedWithSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"archived"}, titles(archived))

	pending, err := repo.HasPendingAIIdeas(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, pending)

	require.NoError(t, repo.UpdateByID(ctx, fixtures[0].ID, map[string]interface{}{"status": models.StatusIdeaPassed}))
	pending, err = repo.HasPendingAIIdeas(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, pending)

	err = repo.UpdateByID(ctx, 9999, map[string]interface{}{"status": models.StatusDone})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeatureRepository_Comments(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := seedRoadmap(t, NewRoadmapRepository(db), models.Roadmap{Title: "shop"})
	repo := NewFeatureRepository(db)
	f := &models.Feature{RoadmapID: r.ID, Title: "A", Kind: models.KindFeature, Status: models.StatusIdeas}
	require.NoError(t, repo.Create(ctx, f))

	require.NoError(t, repo.AddComment(ctx, f.ID, "first"))
	require.NoError(t, repo.AddComment(ctx, f.ID, "second"))

	list, err := repo.ListComments(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Body)
	assert.Equal(t, "second", list[1].Body)
}

func TestIdeaSessionRepository_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := seedRoadmap(t, NewRoadmapRepository(db), models.Roadmap{Title: "shop"})
	repo := NewIdeaSessionRepository(db)
	features := NewFeatureRepository(db)

	assert.Error(t, repo.Create(ctx, &models.IdeaSession{RoadmapID: r.ID}))

	tr := &models.IdeaSession{RoadmapID: r.ID, SessionID: "sessions/1", PromptTitle: "Scan"}
	require.NoError(t, repo.Create(ctx, tr))
	assert.Equal(t, models.IdeaSessionPending, tr.Status)

	exists, err := repo.ExistsPending(ctx, r.ID, "Scan")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsPending(ctx, r.ID, "Other")
	require.NoError(t, err)
	assert.False(t, exists)

	ideas := []models.Feature{
		{RoadmapID: r.ID, Title: "one", Kind: models.KindFeature, Status: models.StatusIdeas, AIGenerated: true},
		{RoadmapID: r.ID, Title: "two", Kind: models.KindBug, Status: models.StatusIdeas, AIGenerated: true},
	}
	require.NoError(t, repo.Complete(ctx, tr.ID, ideas))

	err = repo.Complete(ctx, tr.ID, []models.Feature{{RoadmapID: r.ID, Title: "three", Kind: models.KindFeature, Status: models.StatusIdeas}})
	assert.ErrorIs(t, err, ErrConflict)

	list, err := features.ListByRoadmap(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := repo.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaSessionCompleted, got.Status)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestIdeaSessionRepository_MarkError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := seedRoadmap(t, NewRoadmapRepository(db), models.Roadmap{Title: "shop"})
	repo := NewIdeaSessionRepository(db)

	tr := &models.IdeaSession{RoadmapID: r.ID, SessionID: "sessions/1", PromptTitle: "Scan"}
	require.NoError(t, repo.Create(ctx, tr))
	require.NoError(t, repo.MarkError(ctx, tr.ID, "timed out"))

	got, err := repo.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaSessionError, got.Status)
	assert.Equal(t, "timed out", got.Note)

	byRoadmap, err := repo.ListByRoadmap(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, byRoadmap, 1)
}

func TestTemplateRepository_UpsertByTitle(t *testing.T) {
	repo := NewTemplateRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.PromptTemplate{Title: "Scan", Kind: models.KindBug, Mode: models.ModePlanning, Text: "v1"}))
	require.NoError(t, repo.Upsert(ctx, &models.PromptTemplate{Title: "Scan", Kind: models.KindBug, Mode: models.ModePlanning, Text: "v2"}))
	require.NoError(t, repo.Upsert(ctx, &models.PromptTemplate{Title: "Fix", Kind: models.KindBug, Mode: models.ModeBuilding, Text: "fix"}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	planning, err := repo.ListByMode(ctx, models.ModePlanning)
	require.NoError(t, err)
	require.Len(t, planning, 1)
	assert.Equal(t, "v2", planning[0].Text)
}

func TestSettingsRepository_DefaultsAndUpdate(t *testing.T) {
	repo := NewSettingsRepository(openTestDB(t))
	ctx := context.Background()

	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", s.StartingBranch)

	s.StartingBranch = "develop"
	s.WebhookSecret = "abc"
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "develop", got.StartingBranch)
	assert.Equal(t, "abc", got.WebhookSecret)
}
