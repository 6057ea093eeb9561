//go:build prod

package database

import (
	"log/slog"
	"os"
	"path/filepath"
)

// GetDefaultDBPath returns the database path for production mode.
// In production, the database lives in the user's config directory.
func GetDefaultDBPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		slog.Warn("failed to get user config dir, using working directory", "error", err)
		return "roadmapper.db"
	}

	appDir := filepath.Join(configDir, "roadmapper")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		slog.Warn("failed to create app config dir, using working directory", "dir", appDir, "error", err)
		return "roadmapper.db"
	}

	return filepath.Join(appDir, "roadmapper.db")
}

func IsDevelopment() bool {
	return false
}
