package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadmapper/internal/jules"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ROADMAPPER_DB_PATH", "HTTP_ADDR", "JULES_API_URL", "IDEA_SESSION_TIMEOUT", "DISCOVERY_ATTEMPTS", "DISCOVERY_INTERVAL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("roadmapper.db")
	require.NoError(t, err)
	assert.Equal(t, "roadmapper.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, jules.DefaultBaseURL, cfg.JulesAPIURL)
	assert.Equal(t, 30*time.Minute, cfg.IdeaSessionTimeout)
	assert.Equal(t, 10, cfg.DiscoveryAttempts)
	assert.Equal(t, 3*time.Second, cfg.DiscoveryInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROADMAPPER_DB_PATH", "/tmp/x.db")
	t.Setenv("IDEA_SESSION_TIMEOUT", "45m")
	t.Setenv("DISCOVERY_INTERVAL", "5")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load("ignored.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 45*time.Minute, cfg.IdeaSessionTimeout)
	assert.Equal(t, 5*time.Second, cfg.DiscoveryInterval)

	opts := cfg.EngineOptions()
	assert.Equal(t, 45*time.Minute, opts.IdeaSessionTimeout)
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load("roadmapper.db")
	assert.Error(t, err)
}
