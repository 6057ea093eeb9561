package services

import (
	"context"
	"strings"

	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
)

// Readiness values reported for a roadmap.
const (
	ReadinessReady         = "Ready"
	ReadinessNoCredential  = "Not Configured"
	ReadinessUnlinked      = "Unlinked"
	ReadinessInvalidSource = "Invalid Source"
)

type RoadmapService interface {
	Register(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error)
	Get(ctx context.Context, id uint) (*models.Roadmap, error)
	List(ctx context.Context) ([]models.Roadmap, error)
	Update(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error)
	Delete(ctx context.Context, id uint) error
	Readiness(ctx context.Context, roadmap *models.Roadmap) string
}

type credentialResolver interface {
	Resolve(ctx context.Context, roadmap *models.Roadmap) string
}

type sourceResolver interface {
	ResolveSource(ref string) (string, error)
}

type roadmapService struct {
	roadmaps    repositories.RoadmapRepository
	credentials credentialResolver
	sources     sourceResolver
}

func NewRoadmapService(roadmaps repositories.RoadmapRepository, credentials credentialResolver, sources sourceResolver) RoadmapService {
	return &roadmapService{roadmaps: roadmaps, credentials: credentials, sources: sources}
}

func (s *roadmapService) Register(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error) {
	if roadmap == nil {
		return nil, invalid("roadmap is required")
	}
	roadmap.Title = strings.TrimSpace(roadmap.Title)
	roadmap.SourceRepository = strings.TrimSpace(roadmap.SourceRepository)
	if roadmap.Title == "" {
		return nil, invalid("title is required")
	}
	roadmap.ID = 0
	if err := s.roadmaps.Create(ctx, roadmap); err != nil {
		return nil, err
	}
	return roadmap, nil
}

func (s *roadmapService) Get(ctx context.Context, id uint) (*models.Roadmap, error) {
	if id == 0 {
		return nil, invalid("roadmap ID is required")
	}
	return s.roadmaps.Get(ctx, id)
}

func (s *roadmapService) List(ctx context.Context) ([]models.Roadmap, error) {
	return s.roadmaps.List(ctx)
}

func (s *roadmapService) Update(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error) {
	if roadmap == nil || roadmap.ID == 0 {
		return nil, invalid("roadmap ID is required")
	}
	roadmap.Title = strings.TrimSpace(roadmap.Title)
	if roadmap.Title == "" {
		return nil, invalid("title is required")
	}
	roadmap.SourceRepository = strings.TrimSpace(roadmap.SourceRepository)
	if err := s.roadmaps.Update(ctx, roadmap); err != nil {
		return nil, err
	}
	return roadmap, nil
}

func (s *roadmapService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return invalid("roadmap ID is required")
	}
	return s.roadmaps.Delete(ctx, id)
}

// Readiness reports whether the orchestration cadences will pick the roadmap up.
func (s *roadmapService) Readiness(ctx context.Context, roadmap *models.Roadmap) string {
	if strings.TrimSpace(roadmap.SourceRepository) == "" {
		return ReadinessUnlinked
	}
	if _, err := s.sources.ResolveSource(roadmap.SourceRepository); err != nil {
		return ReadinessInvalidSource
	}
	if s.credentials.Resolve(ctx, roadmap) == "" {
		return ReadinessNoCredential
	}
	return ReadinessReady
}
