package mocks

import (
	"context"

	"roadmapper/internal/models"
)

type RoadmapRepositoryMock struct {
	GetFunc                   func(ctx context.Context, id uint) (*models.Roadmap, error)
	ListFunc                  func(ctx context.Context) ([]models.Roadmap, error)
	ListConfiguredFunc        func(ctx context.Context) ([]models.Roadmap, error)
	CreateFunc                func(ctx context.Context, roadmap *models.Roadmap) error
	UpdateFunc                func(ctx context.Context, roadmap *models.Roadmap) error
	DeleteFunc                func(ctx context.Context, id uint) error
	SetDescriptionIfEmptyFunc func(ctx context.Context, id uint, description string) (bool, error)
	AddClassificationsFunc    func(ctx context.Context, id uint, classifications []models.RoadmapClassification) error
}

func (m *RoadmapRepositoryMock) Get(ctx context.Context, id uint) (*models.Roadmap, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *RoadmapRepositoryMock) List(ctx context.Context) ([]models.Roadmap, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []models.Roadmap{}, nil
}

func (m *RoadmapRepositoryMock) ListConfigured(ctx context.Context) ([]models.Roadmap, error) {
	if m.ListConfiguredFunc != nil {
		return m.ListConfiguredFunc(ctx)
	}
	return []models.Roadmap{}, nil
}

func (m *RoadmapRepositoryMock) Create(ctx context.Context, roadmap *models.Roadmap) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, roadmap)
	}
	return nil
}

func (m *RoadmapRepositoryMock) Update(ctx context.Context, roadmap *models.Roadmap) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, roadmap)
	}
	return nil
}

func (m *RoadmapRepositoryMock) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *RoadmapRepositoryMock) SetDescriptionIfEmpty(ctx context.Context, id uint, description string) (bool, error) {
	if m.SetDescriptionIfEmptyFunc != nil {
		return m.SetDescriptionIfEmptyFunc(ctx, id, description)
	}
	return false, nil
}

func (m *RoadmapRepositoryMock) AddClassifications(ctx context.Context, id uint, classifications []models.RoadmapClassification) error {
	if m.AddClassificationsFunc != nil {
		return m.AddClassificationsFunc(ctx, id, classifications)
	}
	return nil
}
