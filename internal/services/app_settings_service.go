package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
)

type SettingsService interface {
	Get(ctx context.Context) (*models.RoadmapSettings, error)
	SetStartingBranch(ctx context.Context, branch string) (*models.RoadmapSettings, error)
	EnsureWebhookSecret(ctx context.Context) (string, error)
	RotateWebhookSecret(ctx context.Context) (string, error)
}

type settingsService struct {
	settings repositories.SettingsRepository
}

func NewSettingsService(settings repositories.SettingsRepository) SettingsService {
	return &settingsService{settings: settings}
}

func (s *settingsService) Get(ctx context.Context) (*models.RoadmapSettings, error) {
	return s.settings.Get(ctx)
}

func (s *settingsService) SetStartingBranch(ctx context.Context, branch string) (*models.RoadmapSettings, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return nil, invalid("starting branch is required")
	}
	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	current.StartingBranch = branch
	if err := s.settings.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// EnsureWebhookSecret returns the stored webhook secret, generating and
// saving one on first use.
func (s *settingsService) EnsureWebhookSecret(ctx context.Context) (string, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	if current.WebhookSecret != "" {
		return current.WebhookSecret, nil
	}
	return s.rotate(ctx, current)
}

func (s *settingsService) RotateWebhookSecret(ctx context.Context) (string, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	return s.rotate(ctx, current)
}

func (s *settingsService) rotate(ctx context.Context, current *models.RoadmapSettings) (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	current.WebhookSecret = hex.EncodeToString(buf)
	if err := s.settings.Update(ctx, current); err != nil {
		return "", err
	}
	return current.WebhookSecret, nil
}
