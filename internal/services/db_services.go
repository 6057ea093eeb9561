package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"roadmapper/internal/repositories"
)

// DbServices aggregates the repositories and the domain services built on
// them.
type DbServices struct {
	RoadmapRepo     repositories.RoadmapRepository
	FeatureRepo     repositories.FeatureRepository
	IdeaSessionRepo repositories.IdeaSessionRepository
	TemplateRepo    repositories.TemplateRepository
	SettingsRepo    repositories.SettingsRepository

	Roadmaps  RoadmapService
	Features  FeatureService
	Templates TemplateService
	Settings  SettingsService
}

// NewDbServices constructs the service container using repositories backed by db.
func NewDbServices(db *gorm.DB, credentials *CredentialService, git *GitService) *DbServices {
	s := &DbServices{
		RoadmapRepo:     repositories.NewRoadmapRepository(db),
		FeatureRepo:     repositories.NewFeatureRepository(db),
		IdeaSessionRepo: repositories.NewIdeaSessionRepository(db),
		TemplateRepo:    repositories.NewTemplateRepository(db),
		SettingsRepo:    repositories.NewSettingsRepository(db),
	}
	s.Roadmaps = NewRoadmapService(s.RoadmapRepo, credentials, git)
	s.Features = NewFeatureService(s.FeatureRepo)
	s.Templates = NewTemplateService(s.TemplateRepo)
	s.Settings = NewSettingsService(s.SettingsRepo)
	return s
}

// StartDbServices seeds the default templates on an empty table and makes
// sure a webhook secret exists. templateDir, when set, is loaded on top.
func (s *DbServices) StartDbServices(ctx context.Context, templateDir string) error {
	if _, err := s.Templates.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}
	if templateDir != "" {
		if _, err := s.Templates.LoadDir(ctx, templateDir); err != nil {
			return fmt.Errorf("load templates from %s: %w", templateDir, err)
		}
	}
	if _, err := s.Settings.EnsureWebhookSecret(ctx); err != nil {
		return fmt.Errorf("webhook secret: %w", err)
	}
	return nil
}
