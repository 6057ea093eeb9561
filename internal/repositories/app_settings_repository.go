package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"roadmapper/internal/models"
)

type SettingsRepository interface {
	Get(ctx context.Context) (*models.RoadmapSettings, error)
	Update(ctx context.Context, settings *models.RoadmapSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*models.RoadmapSettings, error) {
	var settings models.RoadmapSettings
	if err := r.db.WithContext(ctx).First(&settings, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Return default settings if not found
			return &models.RoadmapSettings{
				ID:             1,
				StartingBranch: "main",
			}, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *models.RoadmapSettings) error {
	// Ensure ID is set to 1 for single-row table
	settings.ID = 1
	return r.db.WithContext(ctx).Save(settings).Error
}
