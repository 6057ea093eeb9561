package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"roadmapper/internal/models"
)

type IdeaSessionRepository interface {
	Get(ctx context.Context, id uint) (*models.IdeaSession, error)
	ListPending(ctx context.Context) ([]models.IdeaSession, error)
	ListByRoadmap(ctx context.Context, roadmapID uint) ([]models.IdeaSession, error)
	ExistsPending(ctx context.Context, roadmapID uint, promptTitle string) (bool, error)
	Create(ctx context.Context, session *models.IdeaSession) error
	MarkError(ctx context.Context, id uint, note string) error
	Complete(ctx context.Context, id uint, features []models.Feature) error
}

type ideaSessionRepository struct {
	db *gorm.DB
}

func NewIdeaSessionRepository(db *gorm.DB) IdeaSessionRepository {
	return &ideaSessionRepository{db: db}
}

func (r *ideaSessionRepository) Get(ctx context.Context, id uint) (*models.IdeaSession, error) {
	var sess models.IdeaSession
	if err := r.db.WithContext(ctx).First(&sess, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("idea session %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting idea session %d: %w", id, err)
	}
	return &sess, nil
}

func (r *ideaSessionRepository) ListPending(ctx context.Context) ([]models.IdeaSession, error) {
	var list []models.IdeaSession
	err := r.db.WithContext(ctx).
		Where("status = ?", models.IdeaSessionPending).
		Order("created_at asc, id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing pending idea sessions: %w", err)
	}
	return list, nil
}

func (r *ideaSessionRepository) ListByRoadmap(ctx context.Context, roadmapID uint) ([]models.IdeaSession, error) {
	var list []models.IdeaSession
	if err := r.db.WithContext(ctx).Where("roadmap_id = ?", roadmapID).Order("id desc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing idea sessions of roadmap %d: %w", roadmapID, err)
	}
	return list, nil
}

func (r *ideaSessionRepository) ExistsPending(ctx context.Context, roadmapID uint, promptTitle string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.IdeaSession{}).
		Where("roadmap_id = ? AND prompt_title = ? AND status = ?", roadmapID, promptTitle, models.IdeaSessionPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking pending idea sessions of roadmap %d: %w", roadmapID, err)
	}
	return count > 0, nil
}

func (r *ideaSessionRepository) Create(ctx context.Context, session *models.IdeaSession) error {
	if session.SessionID == "" {
		return errors.New("session ID is required")
	}
	if session.Status == "" {
		session.Status = models.IdeaSessionPending
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("creating idea session: %w", err)
	}
	return nil
}

func (r *ideaSessionRepository) MarkError(ctx context.Context, id uint, note string) error {
	err := r.db.WithContext(ctx).Model(&models.IdeaSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.IdeaSessionError, "note": note}).Error
	if err != nil {
		return fmt.Errorf("marking idea session %d as error: %w", id, err)
	}
	return nil
}

// Complete stores the parsed features and resolves the tracker in a single
// transaction, so a crash never leaves ideas without a resolved tracker.
func (r *ideaSessionRepository) Complete(ctx context.Context, id uint, features []models.Feature) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(features) > 0 {
			if err := tx.Create(&features).Error; err != nil {
				return fmt.Errorf("creating %d ideas: %w", len(features), err)
			}
		}
		res := tx.Model(&models.IdeaSession{}).
			Where("id = ? AND status = ?", id, models.IdeaSessionPending).
			Update("status", models.IdeaSessionCompleted)
		if res.Error != nil {
			return fmt.Errorf("completing idea session %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("idea session %d is no longer pending: %w", id, ErrConflict)
		}
		return nil
	})
}
