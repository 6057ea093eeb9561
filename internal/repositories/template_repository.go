package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roadmapper/internal/models"
)

type TemplateRepository interface {
	Get(ctx context.Context, id uint) (*models.PromptTemplate, error)
	GetAll(ctx context.Context) ([]models.PromptTemplate, error)
	ListByMode(ctx context.Context, mode models.PromptMode) ([]models.PromptTemplate, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, template *models.PromptTemplate) error
	Upsert(ctx context.Context, template *models.PromptTemplate) error
	Update(ctx context.Context, template *models.PromptTemplate) error
	Delete(ctx context.Context, id uint) error
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Get(ctx context.Context, id uint) (*models.PromptTemplate, error) {
	var tmpl models.PromptTemplate
	if err := r.db.WithContext(ctx).First(&tmpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting template %d: %w", id, err)
	}
	return &tmpl, nil
}

func (r *templateRepository) GetAll(ctx context.Context) ([]models.PromptTemplate, error) {
	var list []models.PromptTemplate
	if err := r.db.WithContext(ctx).Order("id asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return list, nil
}

func (r *templateRepository) ListByMode(ctx context.Context, mode models.PromptMode) ([]models.PromptTemplate, error) {
	var list []models.PromptTemplate
	if err := r.db.WithContext(ctx).Where("mode = ?", mode).Order("id asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing %s templates: %w", mode, err)
	}
	return list, nil
}

func (r *templateRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.PromptTemplate{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting templates: %w", err)
	}
	return n, nil
}

func (r *templateRepository) Create(ctx context.Context, template *models.PromptTemplate) error {
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("creating template: %w", err)
	}
	return nil
}

// Upsert inserts the template or replaces kind, mode and text of the one
// sharing its title.
func (r *templateRepository) Upsert(ctx context.Context, template *models.PromptTemplate) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "mode", "text"}),
	}).Create(template).Error
	if err != nil {
		return fmt.Errorf("upserting template %q: %w", template.Title, err)
	}
	return nil
}

func (r *templateRepository) Update(ctx context.Context, template *models.PromptTemplate) error {
	if err := r.db.WithContext(ctx).Save(template).Error; err != nil {
		return fmt.Errorf("updating template %d: %w", template.ID, err)
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.PromptTemplate{}, id).Error; err != nil {
		return fmt.Errorf("deleting template %d: %w", id, err)
	}
	return nil
}
