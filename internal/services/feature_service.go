package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type FeatureService interface {
	Create(ctx context.Context, feature *models.Feature) (*models.Feature, error)
	Get(ctx context.Context, id uint) (*models.Feature, error)
	ListByRoadmap(ctx context.Context, roadmapID uint) ([]models.Feature, error)
	Transition(ctx context.Context, id uint, to models.FeatureStatus) (*models.Feature, error)
	Comments(ctx context.Context, id uint) ([]models.FeatureComment, error)
	MarkMergedBySession(ctx context.Context, sessionID string) (*models.Feature, error)
}

// SessionReleaser reclaims the remote agent session a feature still holds.
// Implementations are best effort and never fail the caller.
type SessionReleaser interface {
	ReleaseSession(ctx context.Context, feature *models.Feature)
}

type FeatureOption func(*featureService)

// WithSessionReleaser deletes the remote session whenever a transition drops
// the feature's session reference.
func WithSessionReleaser(r SessionReleaser) FeatureOption {
	return func(s *featureService) { s.releaser = r }
}

type featureService struct {
	features repositories.FeatureRepository
	releaser SessionReleaser
}

func NewFeatureService(features repositories.FeatureRepository, opts ...FeatureOption) FeatureService {
	s := &featureService{features: features}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create files a manually written backlog item.
func (s *featureService) Create(ctx context.Context, feature *models.Feature) (*models.Feature, error) {
	if feature == nil {
		return nil, invalid("feature is required")
	}
	if feature.RoadmapID == 0 {
		return nil, invalid("roadmap ID is required")
	}
	feature.Title = strings.TrimSpace(feature.Title)
	if feature.Title == "" {
		return nil, invalid("title is required")
	}
	if feature.Kind == "" {
		feature.Kind = models.KindFeature
	}
	if _, ok := models.ParseFeatureKind(string(feature.Kind)); !ok {
		return nil, invalidf("kind must be Feature or Bug, got %q", feature.Kind)
	}
	if feature.Status == "" {
		feature.Status = models.StatusIdeas
	}
	// Doing is only entered together with a launched session.
	if feature.Status == models.StatusDoing || feature.HasSession() {
		return nil, fmt.Errorf("%w: new features cannot start in %s", ErrInvalidTransition, models.StatusDoing)
	}
	feature.ID = 0
	feature.AIGenerated = false
	if err := s.features.Create(ctx, feature); err != nil {
		return nil, err
	}
	return feature, nil
}

func (s *featureService) Get(ctx context.Context, id uint) (*models.Feature, error) {
	if id == 0 {
		return nil, invalid("feature ID is required")
	}
	return s.features.Get(ctx, id)
}

func (s *featureService) ListByRoadmap(ctx context.Context, roadmapID uint) ([]models.Feature, error) {
	return s.features.ListByRoadmap(ctx, roadmapID)
}

// Transition applies a manual status change. Moving into Doing is refused
// here; it happens only when a session is attached.
func (s *featureService) Transition(ctx context.Context, id uint, to models.FeatureStatus) (*models.Feature, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if to == models.StatusDoing {
		return nil, fmt.Errorf("%w: %s requires a launched session", ErrInvalidTransition, to)
	}
	if !models.CanTransition(f.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.Status, to)
	}
	updates := map[string]interface{}{"status": to}
	// Sending an errored item back to triage drops its session so the
	// dispatcher can pick it up again. A manual Doing -> Error may have left
	// that session running remotely.
	release := f.Status == models.StatusError && f.HasSession() &&
		(to == models.StatusIdeaPassed || to == models.StatusBugs)
	if release {
		updates["session_id"] = nil
		updates["agent_status"] = ""
	}
	if err := s.features.UpdateByID(ctx, id, updates); err != nil {
		return nil, err
	}
	if release && s.releaser != nil {
		s.releaser.ReleaseSession(ctx, f)
	}
	if err := s.features.AddComment(ctx, id, fmt.Sprintf("Status changed from %s to %s.", f.Status, to)); err != nil {
		return nil, err
	}
	return s.features.Get(ctx, id)
}

func (s *featureService) Comments(ctx context.Context, id uint) ([]models.FeatureComment, error) {
	return s.features.ListComments(ctx, id)
}

// MarkMergedBySession closes the feature whose session produced a merged
// pull request. Archived features are left alone.
func (s *featureService) MarkMergedBySession(ctx context.Context, sessionID string) (*models.Feature, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, invalid("session ID is required")
	}
	f, err := s.features.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if f.Status == models.StatusDone || f.Status.IsTerminal() {
		return f, nil
	}
	if err := s.features.UpdateByID(ctx, f.ID, map[string]interface{}{"status": models.StatusDone}); err != nil {
		return nil, err
	}
	if err := s.features.AddComment(ctx, f.ID, "Pull request merged."); err != nil {
		return nil, err
	}
	f.Status = models.StatusDone
	return f, nil
}
