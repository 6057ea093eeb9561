package mocks

import (
	"context"

	"roadmapper/internal/models"
)

type FeatureRepositoryMock struct {
	GetFunc                     func(ctx context.Context, id uint) (*models.Feature, error)
	GetBySessionFunc            func(ctx context.Context, sessionID string) (*models.Feature, error)
	ListByRoadmapFunc           func(ctx context.Context, roadmapID uint) ([]models.Feature, error)
	ListAwaitingBuildFunc       func(ctx context.Context) ([]models.Feature, error)
	ListInFlightFunc            func(ctx context.Context) ([]models.Feature, error)
	ListArchivedWithSessionFunc func(ctx context.Context) ([]models.Feature, error)
	HasPendingAIIdeasFunc       func(ctx context.Context, roadmapID uint) (bool, error)
	CreateFunc                  func(ctx context.Context, feature *models.Feature) error
	CreateBatchFunc             func(ctx context.Context, features []models.Feature) error
	UpdateByIDFunc              func(ctx context.Context, id uint, updates map[string]interface{}) error
	AttachSessionFunc           func(ctx context.Context, id uint, sessionID string) error
	AddCommentFunc              func(ctx context.Context, featureID uint, body string) error
	ListCommentsFunc            func(ctx context.Context, featureID uint) ([]models.FeatureComment, error)
}

func (m *FeatureRepositoryMock) Get(ctx context.Context, id uint) (*models.Feature, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *FeatureRepositoryMock) GetBySession(ctx context.Context, sessionID string) (*models.Feature, error) {
	if m.GetBySessionFunc != nil {
		return m.GetBySessionFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *FeatureRepositoryMock) ListByRoadmap(ctx context.Context, roadmapID uint) ([]models.Feature, error) {
	if m.ListByRoadmapFunc != nil {
		return m.ListByRoadmapFunc(ctx, roadmapID)
	}
	return []models.Feature{}, nil
}

func (m *FeatureRepositoryMock) ListAwaitingBuild(ctx context.Context) ([]models.Feature, error) {
	if m.ListAwaitingBuildFunc != nil {
		return m.ListAwaitingBuildFunc(ctx)
	}
	return []models.Feature{}, nil
}

func (m *FeatureRepositoryMock) ListInFlight(ctx context.Context) ([]models.Feature, error) {
	if m.ListInFlightFunc != nil {
		return m.ListInFlightFunc(ctx)
	}
	return []models.Feature{}, nil
}

func (m *FeatureRepositoryMock) ListArchivedWithSession(ctx context.Context) ([]models.Feature, error) {
	if m.ListArchivedWithSessionFunc != nil {
		return m.ListArchivedWithSessionFunc(ctx)
	}
	return []models.Feature{}, nil
}

func (m *FeatureRepositoryMock) HasPendingAIIdeas(ctx context.Context, roadmapID uint) (bool, error) {
	if m.HasPendingAIIdeasFunc != nil {
		return m.HasPendingAIIdeasFunc(ctx, roadmapID)
	}
	return false, nil
}

func (m *FeatureRepositoryMock) Create(ctx context.Context, feature *models.Feature) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, feature)
	}
	return nil
}

func (m *FeatureRepositoryMock) CreateBatch(ctx context.Context, features []models.Feature) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, features)
	}
	return nil
}

func (m *FeatureRepositoryMock) UpdateByID(ctx context.Context, id uint, updates map[string]interface{}) error {
	if m.UpdateByIDFunc != nil {
		return m.UpdateByIDFunc(ctx, id, updates)
	}
	return nil
}

func (m *FeatureRepositoryMock) AttachSession(ctx context.Context, id uint, sessionID string) error {
	if m.AttachSessionFunc != nil {
		return m.AttachSessionFunc(ctx, id, sessionID)
	}
	return nil
}

func (m *FeatureRepositoryMock) AddComment(ctx context.Context, featureID uint, body string) error {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, featureID, body)
	}
	return nil
}

func (m *FeatureRepositoryMock) ListComments(ctx context.Context, featureID uint) ([]models.FeatureComment, error) {
	if m.ListCommentsFunc != nil {
		return m.ListCommentsFunc(ctx, featureID)
	}
	return []models.FeatureComment{}, nil
}
