package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"roadmapper/internal/models"
)

type FeatureRepository interface {
	Get(ctx context.Context, id uint) (*models.Feature, error)
	GetBySession(ctx context.Context, sessionID string) (*models.Feature, error)
	ListByRoadmap(ctx context.Context, roadmapID uint) ([]models.Feature, error)
	ListAwaitingBuild(ctx context.Context) ([]models.Feature, error)
	ListInFlight(ctx context.Context) ([]models.Feature, error)
	ListArchivedWithSession(ctx context.Context) ([]models.Feature, error)
	HasPendingAIIdeas(ctx context.Context, roadmapID uint) (bool, error)
	Create(ctx context.Context, feature *models.Feature) error
	CreateBatch(ctx context.Context, features []models.Feature) error
	UpdateByID(ctx context.Context, id uint, updates map[string]interface{}) error
	AttachSession(ctx context.Context, id uint, sessionID string) error
	AddComment(ctx context.Context, featureID uint, body string) error
	ListComments(ctx context.Context, featureID uint) ([]models.FeatureComment, error)
}

type featureRepository struct {
	db *gorm.DB
}

func NewFeatureRepository(db *gorm.DB) FeatureRepository {
	return &featureRepository{db: db}
}

const sessionSet = "session_id IS NOT NULL AND session_id <> ''"
const sessionUnset = "(session_id IS NULL OR session_id = '')"

func (r *featureRepository) withTags(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
}

func (r *featureRepository) Get(ctx context.Context, id uint) (*models.Feature, error) {
	var f models.Feature
	if err := r.withTags(ctx).First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("feature %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting feature %d: %w", id, err)
	}
	return &f, nil
}

func (r *featureRepository) GetBySession(ctx context.Context, sessionID string) (*models.Feature, error) {
	var f models.Feature
	if err := r.withTags(ctx).Where("session_id = ?", sessionID).Take(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("feature with session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("getting feature by session %s: %w", sessionID, err)
	}
	return &f, nil
}

func (r *featureRepository) ListByRoadmap(ctx context.Context, roadmapID uint) ([]models.Feature, error) {
	var list []models.Feature
	if err := r.withTags(ctx).Where("roadmap_id = ?", roadmapID).Order("id asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing features of roadmap %d: %w", roadmapID, err)
	}
	return list, nil
}

// ListAwaitingBuild returns triaged features that have not been handed to
// the agent yet, ordered so callers can group them by roadmap.
func (r *featureRepository) ListAwaitingBuild(ctx context.Context) ([]models.Feature, error) {
	var list []models.Feature
	err := r.withTags(ctx).
		Where("status IN ?", []models.FeatureStatus{models.StatusIdeaPassed, models.StatusBugs}).
		Where(sessionUnset).
		Order("roadmap_id asc, id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing features awaiting build: %w", err)
	}
	return list, nil
}

func (r *featureRepository) ListInFlight(ctx context.Context) ([]models.Feature, error) {
	var list []models.Feature
	err := r.withTags(ctx).
		Where("status = ?", models.StatusDoing).
		Where(sessionSet).
		Order("id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing in-flight features: %w", err)
	}
	return list, nil
}

func (r *featureRepository) ListArchivedWithSession(ctx context.Context) ([]models.Feature, error) {
	var list []models.Feature
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusArchived).
		Where(sessionSet).
		Order("id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing archived features with sessions: %w", err)
	}
	return list, nil
}

// HasPendingAIIdeas reports whether the roadmap still has an unreviewed
// AI-generated batch sitting in Ideas.
func (r *featureRepository) HasPendingAIIdeas(ctx context.Context, roadmapID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Feature{}).
		Where("roadmap_id = ? AND status = ? AND ai_generated = ?", roadmapID, models.StatusIdeas, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking pending ideas of roadmap %d: %w", roadmapID, err)
	}
	return count > 0, nil
}

func (r *featureRepository) Create(ctx context.Context, feature *models.Feature) error {
	if err := r.db.WithContext(ctx).Create(feature).Error; err != nil {
		return fmt.Errorf("creating feature: %w", err)
	}
	return nil
}

func (r *featureRepository) CreateBatch(ctx context.Context, features []models.Feature) error {
	if len(features) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&features).Error; err != nil {
		return fmt.Errorf("creating %d features: %w", len(features), err)
	}
	return nil
}

func (r *featureRepository) UpdateByID(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Feature{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating feature %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("feature %d: %w", id, ErrNotFound)
	}
	return nil
}

// AttachSession records a launched session and moves the feature to Doing in
// one statement. It refuses features that already hold a session.
func (r *featureRepository) AttachSession(ctx context.Context, id uint, sessionID string) error {
	if sessionID == "" {
		return errors.New("session ID is required")
	}
	res := r.db.WithContext(ctx).Model(&models.Feature{}).
		Where("id = ?", id).
		Where(sessionUnset).
		Updates(map[string]interface{}{
			"session_id":   sessionID,
			"status":       models.StatusDoing,
			"agent_status": "",
		})
	if res.Error != nil {
		return fmt.Errorf("attaching session to feature %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("feature %d already holds a session: %w", id, ErrConflict)
	}
	return nil
}

func (r *featureRepository) AddComment(ctx context.Context, featureID uint, body string) error {
	c := models.FeatureComment{FeatureID: featureID, Body: body}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return fmt.Errorf("commenting on feature %d: %w", featureID, err)
	}
	return nil
}

func (r *featureRepository) ListComments(ctx context.Context, featureID uint) ([]models.FeatureComment, error) {
	var list []models.FeatureComment
	if err := r.db.WithContext(ctx).Where("feature_id = ?", featureID).Order("id asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing comments of feature %d: %w", featureID, err)
	}
	return list, nil
}
