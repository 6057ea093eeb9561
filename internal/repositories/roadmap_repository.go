package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roadmapper/internal/models"
)

type RoadmapRepository interface {
	Get(ctx context.Context, id uint) (*models.Roadmap, error)
	List(ctx context.Context) ([]models.Roadmap, error)
	ListConfigured(ctx context.Context) ([]models.Roadmap, error)
	Create(ctx context.Context, roadmap *models.Roadmap) error
	Update(ctx context.Context, roadmap *models.Roadmap) error
	Delete(ctx context.Context, id uint) error
	SetDescriptionIfEmpty(ctx context.Context, id uint, description string) (bool, error)
	AddClassifications(ctx context.Context, id uint, classifications []models.RoadmapClassification) error
}

type roadmapRepository struct {
	db *gorm.DB
}

func NewRoadmapRepository(db *gorm.DB) RoadmapRepository {
	return &roadmapRepository{db: db}
}

func (r *roadmapRepository) Get(ctx context.Context, id uint) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	err := r.db.WithContext(ctx).
		Preload("Classifications", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&roadmap, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("roadmap %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting roadmap %d: %w", id, err)
	}
	return &roadmap, nil
}

func (r *roadmapRepository) List(ctx context.Context) ([]models.Roadmap, error) {
	var list []models.Roadmap
	err := r.db.WithContext(ctx).
		Preload("Classifications", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Order("id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing roadmaps: %w", err)
	}
	return list, nil
}

// ListConfigured returns active roadmaps that point at a source repository.
// Credentials are resolved by the caller since they may live outside the row.
func (r *roadmapRepository) ListConfigured(ctx context.Context) ([]models.Roadmap, error) {
	var list []models.Roadmap
	err := r.db.WithContext(ctx).
		Preload("Classifications", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("active = ? AND source_repository <> ''", true).
		Order("id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing configured roadmaps: %w", err)
	}
	return list, nil
}

func (r *roadmapRepository) Create(ctx context.Context, roadmap *models.Roadmap) error {
	if err := r.db.WithContext(ctx).Create(roadmap).Error; err != nil {
		return fmt.Errorf("creating roadmap: %w", err)
	}
	return nil
}

func (r *roadmapRepository) Update(ctx context.Context, roadmap *models.Roadmap) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(roadmap).Error; err != nil {
		return fmt.Errorf("updating roadmap %d: %w", roadmap.ID, err)
	}
	return nil
}

func (r *roadmapRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Roadmap{}, id).Error; err != nil {
		return fmt.Errorf("deleting roadmap %d: %w", id, err)
	}
	return nil
}

// SetDescriptionIfEmpty writes description only when the stored one is blank.
// It reports whether the row was changed.
func (r *roadmapRepository) SetDescriptionIfEmpty(ctx context.Context, id uint, description string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Roadmap{}).
		Where("id = ? AND (description IS NULL OR TRIM(description) = '')", id).
		Update("description", description)
	if res.Error != nil {
		return false, fmt.Errorf("setting roadmap %d description: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *roadmapRepository) AddClassifications(ctx context.Context, id uint, classifications []models.RoadmapClassification) error {
	if len(classifications) == 0 {
		return nil
	}
	for i := range classifications {
		classifications[i].ID = 0
		classifications[i].RoadmapID = id
	}
	if err := r.db.WithContext(ctx).Create(&classifications).Error; err != nil {
		return fmt.Errorf("adding classifications to roadmap %d: %w", id, err)
	}
	return nil
}
