package mocks

import (
	"context"

	"roadmapper/internal/models"
)

type SettingsRepositoryMock struct {
	GetFunc    func(ctx context.Context) (*models.RoadmapSettings, error)
	UpdateFunc func(ctx context.Context, settings *models.RoadmapSettings) error
}

func (m *SettingsRepositoryMock) Get(ctx context.Context) (*models.RoadmapSettings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return &models.RoadmapSettings{
		ID:             1,
		StartingBranch: "main",
	}, nil
}

func (m *SettingsRepositoryMock) Update(ctx context.Context, settings *models.RoadmapSettings) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, settings)
	}
	return nil
}
