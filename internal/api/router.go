package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"roadmapper/internal/jules"
	"roadmapper/internal/models"
	"roadmapper/internal/orchestrator"
	"roadmapper/internal/repositories"
	"roadmapper/internal/services"
)

// Engine is the orchestration surface the HTTP layer drives.
type Engine interface {
	Run(ctx context.Context, cadence orchestrator.Cadence) (orchestrator.Report, error)
	Discover(ctx context.Context, roadmapID uint) (*orchestrator.DiscoveryResult, error)
	AssignFeature(ctx context.Context, featureID uint) (*models.Feature, error)
	SendMessage(ctx context.Context, featureID uint, text string) error
	VotePlan(ctx context.Context, featureID uint, action jules.PlanAction) error
}

type Deps struct {
	Engine       Engine
	Roadmaps     services.RoadmapService
	Features     services.FeatureService
	Templates    services.TemplateService
	Settings     services.SettingsService
	IdeaSessions repositories.IdeaSessionRepository
	// Ping checks storage for /health.
	Ping     func(ctx context.Context) error
	APIToken string
}

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(deps Deps, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	healthH := NewHealthHandler(deps.Ping)
	cadenceH := NewCadenceHandler(deps.Engine, logger)
	roadmapH := NewRoadmapHandler(deps.Roadmaps, deps.Features, deps.IdeaSessions, deps.Engine)
	featureH := NewFeatureHandler(deps.Features, deps.Engine)
	templateH := NewTemplateHandler(deps.Templates)
	settingsH := NewSettingsHandler(deps.Settings)
	webhookH := NewWebhookHandler(deps.Settings, deps.Features, logger)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)
	// Signed with the shared webhook secret instead of the API token.
	r.Post("/webhooks/pull-request", webhookH.PullRequest)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.APIToken))

		r.Post("/cadences/{cadence}", cadenceH.Trigger)

		r.Route("/roadmaps", func(r chi.Router) {
			r.Get("/", roadmapH.List)
			r.Post("/", roadmapH.Create)
			r.Get("/{id}", roadmapH.Get)
			r.Patch("/{id}", roadmapH.Update)
			r.Delete("/{id}", roadmapH.Delete)
			r.Post("/{id}/discover", roadmapH.Discover)
			r.Get("/{id}/features", roadmapH.ListFeatures)
			r.Post("/{id}/features", roadmapH.CreateFeature)
			r.Get("/{id}/idea-sessions", roadmapH.ListIdeaSessions)
		})

		r.Route("/features/{id}", func(r chi.Router) {
			r.Get("/", featureH.Get)
			r.Patch("/status", featureH.Transition)
			r.Get("/comments", featureH.Comments)
			r.Post("/assign", featureH.Assign)
			r.Post("/message", featureH.Message)
			r.Post("/plan", featureH.Plan)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", templateH.List)
			r.Post("/", templateH.Create)
			r.Post("/seed", templateH.Seed)
			r.Get("/{id}", templateH.Get)
			r.Put("/{id}", templateH.Update)
			r.Delete("/{id}", templateH.Delete)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsH.Get)
			r.Patch("/", settingsH.Update)
			r.Post("/webhook-secret", settingsH.RotateSecret)
		})
	})

	return r
}
