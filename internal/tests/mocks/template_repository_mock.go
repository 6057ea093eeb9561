package mocks

import (
	"context"

	"roadmapper/internal/models"
)

type TemplateRepositoryMock struct {
	GetFunc        func(ctx context.Context, id uint) (*models.PromptTemplate, error)
	GetAllFunc     func(ctx context.Context) ([]models.PromptTemplate, error)
	ListByModeFunc func(ctx context.Context, mode models.PromptMode) ([]models.PromptTemplate, error)
	CountFunc      func(ctx context.Context) (int64, error)
	CreateFunc     func(ctx context.Context, template *models.PromptTemplate) error
	UpsertFunc     func(ctx context.Context, template *models.PromptTemplate) error
	UpdateFunc     func(ctx context.Context, template *models.PromptTemplate) error
	DeleteFunc     func(ctx context.Context, id uint) error
}

func (m *TemplateRepositoryMock) Get(ctx context.Context, id uint) (*models.PromptTemplate, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *TemplateRepositoryMock) GetAll(ctx context.Context) ([]models.PromptTemplate, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return []models.PromptTemplate{}, nil
}

func (m *TemplateRepositoryMock) ListByMode(ctx context.Context, mode models.PromptMode) ([]models.PromptTemplate, error) {
	if m.ListByModeFunc != nil {
		return m.ListByModeFunc(ctx, mode)
	}
	return []models.PromptTemplate{}, nil
}

func (m *TemplateRepositoryMock) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *TemplateRepositoryMock) Create(ctx context.Context, template *models.PromptTemplate) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, template)
	}
	return nil
}

func (m *TemplateRepositoryMock) Upsert(ctx context.Context, template *models.PromptTemplate) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, template)
	}
	return nil
}

func (m *TemplateRepositoryMock) Update(ctx context.Context, template *models.PromptTemplate) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, template)
	}
	return nil
}

func (m *TemplateRepositoryMock) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
