package unit_tests

import (
	"context"
	"testing"

	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
	"roadmapper/internal/services"
	"roadmapper/internal/tests/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFeatureService_Create_Defaults(t *testing.T) {
	mockRepo := &mocks.FeatureRepositoryMock{
		CreateFunc: func(ctx context.Context, f *models.Feature) error {
			f.ID = 7
			return nil
		},
	}
	service := services.NewFeatureService(mockRepo)

	f, err := service.Create(context.Background(), &models.Feature{RoadmapID: 1, Title: "  Dark mode ", AIGenerated: true})
	require.NoError(t, err)
	assert.Equal(t, uint(7), f.ID)
	assert.Equal(t, "Dark mode", f.Title)
	assert.Equal(t, models.KindFeature, f.Kind)
	assert.Equal(t, models.StatusIdeas, f.Status)
	assert.False(t, f.AIGenerated)
}

func TestFeatureService_Create_RejectsDoing(t *testing.T) {
	service := services.NewFeatureService(&mocks.FeatureRepositoryMock{})

	_, err := service.Create(context.Background(), &models.Feature{RoadmapID: 1, Title: "x", Status: models.StatusDoing})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = service.Create(context.Background(), &models.Feature{RoadmapID: 1, Title: "x", SessionID: strPtr("s1")})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestFeatureService_Create_Validation(t *testing.T) {
	service := services.NewFeatureService(&mocks.FeatureRepositoryMock{})

	for _, f := range []*models.Feature{
		nil,
		{Title: "no roadmap"},
		{RoadmapID: 1, Title: " "},
		{RoadmapID: 1, Title: "x", Kind: "Epic"},
	} {
		_, err := service.Create(context.Background(), f)
		var verr *services.ValidationError
		assert.ErrorAs(t, err, &verr)
	}
}

func TestFeatureService_Transition_RefusesDoing(t *testing.T) {
	mockRepo := &mocks.FeatureRepositoryMock{
		GetFunc: func(ctx context.Context, id uint) (*models.Feature, error) {
			return &models.Feature{ID: id, Status: models.StatusIdeaPassed}, nil
		},
		UpdateByIDFunc: func(ctx context.Context, id uint, updates map[string]interface{}) error {
			t.Fatal("update must not be called")
			return nil
		},
	}
	service := services.NewFeatureService(mockRepo)

	_, err := service.Transition(context.Background(), 3, models.StatusDoing)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestFeatureService_Transition_Invalid(t *testing.T) {
	mockRepo := &mocks.FeatureRepositoryMock{
		GetFunc: func(ctx context.Context, id uint) (*models.Feature, error) {
			return &models.Feature{ID: id, Status: models.StatusArchived}, nil
		},
	}
	service := services.NewFeatureService(mockRepo)

	_, err := service.Transition(context.Background(), 3, models.StatusIdeas)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestFeatureService_Transition_ErrorBackToTriageDropsSession(t *testing.T) {
	status := models.StatusError
	var applied map[string]interface{}
	var comment string
	mockRepo := &mocks.FeatureRepositoryMock{
		GetFunc: func(ctx context.Context, id uint) (*models.Feature, error) {
			return &models.Feature{ID: id, Status: status, SessionID: strPtr("sessions/dead")}, nil
		},
		UpdateByIDFunc: func(ctx context.Context, id uint, updates map[string]interface{}) error {
			applied = updates
			status = updates["status"].(models.FeatureStatus)
			return nil
		},
		AddCommentFunc: func(ctx context.Context, featureID uint, body string) error {
			comment = body
			return nil
		},
	}
	service := services.NewFeatureService(mockRepo)

	f, err := service.Transition(context.Background(), 9, models.StatusBugs)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBugs, f.Status)
	assert.Contains(t, applied, "session_id")
	assert.Nil(t, applied["session_id"])
	assert.Equal(t, "", applied["agent_status"])
	assert.Equal(t, "Status changed from Error to Bugs.", comment)
}

type releaserFunc func(ctx context.Context, feature *models.Feature)

func (f releaserFunc) ReleaseSession(ctx context.Context, feature *models.Feature) { f(ctx, feature) }

func TestFeatureService_Transition_ErrorBackToTriageReleasesSession(t *testing.T) {
	status := models.StatusError
	mockRepo := &mocks.FeatureRepositoryMock{
		GetFunc: func(ctx context.Context, id uint) (*models.Feature, error) {
			f := &models.Feature{ID: id, Status: status}
			if status == models.StatusError {
				f.SessionID = strPtr("sessions/live")
			}
			return f, nil
		},
		UpdateByIDFunc: func(ctx context.Context, id uint, updates map[string]interface{}) error {
			status = updates["status"].(models.FeatureStatus)
			return nil
		},
	}
	var released []string
	service := services.NewFeatureService(mockRepo, services.WithSessionReleaser(releaserFunc(func(ctx context.Context, feature *models.Feature) {
		released = append(released, feature.Session())
	})))

	_, err := service.Transition(context.Background(), 9, models.StatusIdeaPassed)
	require.NoError(t, err)
	assert.Equal(t, []string{"sessions/live"}, released)

	_, err = service.Transition(context.Background(), 9, models.StatusArchived)
	require.NoError(t, err)
	assert.Len(t, released, 1)
}

func TestFeatureService_MarkMergedBySession(t *testing.T) {
	var applied map[string]interface{}
	var comment string
	mockRepo := &mocks.FeatureRepositoryMock{
		GetBySessionFunc: func(ctx context.Context, sessionID string) (*models.Feature, error) {
			assert.Equal(t, "sessions/abc", sessionID)
			return &models.Feature{ID: 4, Status: models.StatusDoing, SessionID: strPtr(sessionID)}, nil
		},
		UpdateByIDFunc: func(ctx context.Context, id uint, updates map[string]interface{}) error {
			applied = updates
			return nil
		},
		AddCommentFunc: func(ctx context.Context, featureID uint, body string) error {
			comment = body
			return nil
		},
	}
	service := services.NewFeatureService(mockRepo)

	f, err := service.MarkMergedBySession(context.Background(), " sessions/abc ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, f.Status)
	assert.Equal(t, models.StatusDone, applied["status"])
	assert.Equal(t, "Pull request merged.", comment)
}

func TestFeatureService_MarkMergedBySession_AlreadyClosed(t *testing.T) {
	mockRepo := &mocks.FeatureRepositoryMock{
		GetBySessionFunc: func(ctx context.Context, sessionID string) (*models.Feature, error) {
			return &models.Feature{ID: 4, Status: models.StatusArchived}, nil
		},
		UpdateByIDFunc: func(ctx context.Context, id uint, updates map[string]interface{}) error {
			t.Fatal("update must not be called")
			return nil
		},
	}
	service := services.NewFeatureService(mockRepo)

	f, err := service.MarkMergedBySession(context.Background(), "sessions/abc")
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, f.Status)
}

func TestFeatureService_MarkMergedBySession_Unknown(t *testing.T) {
	mockRepo := &mocks.FeatureRepositoryMock{
		GetBySessionFunc: func(ctx context.Context, sessionID string) (*models.Feature, error) {
			return nil, repositories.ErrNotFound
		},
	}
	service := services.NewFeatureService(mockRepo)

	_, err := service.MarkMergedBySession(context.Background(), "sessions/missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = service.MarkMergedBySession(context.Background(), "")
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
}
