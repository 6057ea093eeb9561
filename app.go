package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"gorm.io/gorm/logger"

	"roadmapper/internal/api"
	"roadmapper/internal/config"
	"roadmapper/internal/database"
	"roadmapper/internal/events"
	"roadmapper/internal/jules"
	"roadmapper/internal/orchestrator"
	"roadmapper/internal/services"
)

// App owns the process-wide resources shared by every command.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	dbClose func() error

	keyring *services.KeyringService
	git     *services.GitService
	svc     *services.DbServices
	engine  *orchestrator.Engine
	ping    func(ctx context.Context) error
}

// NewApp creates a new App application struct
func NewApp(cfg *config.Config, log *slog.Logger) *App {
	return &App{cfg: cfg, log: log}
}

// startup opens storage and the secret store and wires the engine.
func (a *App) startup(ctx context.Context) error {
	db, err := database.Init(database.Config{
		Path:     a.cfg.DBPath,
		LogLevel: gormLogLevel(a.cfg.LogLevel),
		Logger:   a.log,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	a.dbClose = sqlDB.Close
	a.ping = sqlDB.PingContext

	if err := a.openKeyring(); err != nil {
		// Roadmap fields and JULES_API_KEY still resolve credentials.
		a.log.Warn("keyring unavailable", "error", err)
	}

	credentials := services.NewCredentialService(a.keyring, a.cfg.JulesAPIKey, a.log)
	a.git = services.NewGitService()
	a.svc = services.NewDbServices(db, credentials, a.git)
	if err := a.svc.StartDbServices(ctx, a.cfg.TemplateDir); err != nil {
		return err
	}

	events.EnableLogEmitter(a.log)
	a.engine = orchestrator.NewEngine(orchestrator.Deps{
		Roadmaps:     a.svc.RoadmapRepo,
		Features:     a.svc.FeatureRepo,
		IdeaSessions: a.svc.IdeaSessionRepo,
		Templates:    a.svc.TemplateRepo,
		Settings:     a.svc.SettingsRepo,
		Agent:        jules.NewClient(a.cfg.JulesAPIURL),
		Credentials:  credentials,
		Sources:      a.git,
		Logger:       a.log,
	}, a.cfg.EngineOptions())
	a.svc.Features = services.NewFeatureService(a.svc.FeatureRepo, services.WithSessionReleaser(a.engine))
	return nil
}

func (a *App) openKeyring() error {
	if a.keyring != nil {
		return nil
	}
	ring, err := services.OpenKeyring(services.KeyringConfig{
		Backend:  a.cfg.KeyringBackend,
		Dir:      a.cfg.KeyringDir,
		Password: a.cfg.KeyringPassword,
	})
	if err != nil {
		return err
	}
	a.keyring = services.NewKeyringService(ring)
	return nil
}

// shutdown is called when the process is exiting. Clean up resources here.
func (a *App) shutdown() {
	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			a.log.Error("failed to close database", "error", err)
		} else {
			a.log.Debug("database closed")
		}
		a.dbClose = nil
	}
}

func (a *App) router() http.Handler {
	return api.NewRouter(api.Deps{
		Engine:       a.engine,
		Roadmaps:     a.svc.Roadmaps,
		Features:     a.svc.Features,
		Templates:    a.svc.Templates,
		Settings:     a.svc.Settings,
		IdeaSessions: a.svc.IdeaSessionRepo,
		Ping:         a.ping,
		APIToken:     a.cfg.APIToken,
	}, a.log)
}

func newLogger(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func gormLogLevel(level string) logger.LogLevel {
	if strings.EqualFold(level, "debug") {
		return logger.Info
	}
	return logger.Warn
}
