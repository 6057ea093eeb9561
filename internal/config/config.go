package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"roadmapper/internal/jules"
	"roadmapper/internal/orchestrator"
)

type Config struct {
	DBPath   string
	HTTPAddr string
	// APIToken guards the HTTP surface. Empty disables auth.
	APIToken  string
	LogLevel  string
	LogFormat string
	// Agent
	JulesAPIURL    string
	JulesAPIKey    string
	StartingBranch string
	// Templates
	TemplateDir string
	// Keyring
	KeyringBackend  string
	KeyringDir      string
	KeyringPassword string
	// Engine tuning
	IdeaSessionTimeout time.Duration
	DiscoveryAttempts  int
	DiscoveryInterval  time.Duration
}

// Load reads the environment. defaultDBPath is used when ROADMAPPER_DB_PATH
// is unset.
func Load(defaultDBPath string) (*Config, error) {
	cfg := &Config{
		DBPath:             envStr("ROADMAPPER_DB_PATH", defaultDBPath),
		HTTPAddr:           envStr("HTTP_ADDR", ":8080"),
		APIToken:           envStr("API_TOKEN", ""),
		LogLevel:           envStr("LOG_LEVEL", "info"),
		LogFormat:          envStr("LOG_FORMAT", "json"),
		JulesAPIURL:        envStr("JULES_API_URL", jules.DefaultBaseURL),
		JulesAPIKey:        envStr("JULES_API_KEY", ""),
		StartingBranch:     envStr("JULES_STARTING_BRANCH", orchestrator.DefaultStartingBranch),
		TemplateDir:        envStr("TEMPLATE_DIR", ""),
		KeyringBackend:     envStr("KEYRING_BACKEND", ""),
		KeyringDir:         envStr("KEYRING_DIR", ""),
		KeyringPassword:    envStr("KEYRING_PASSWORD", ""),
		IdeaSessionTimeout: envDuration("IDEA_SESSION_TIMEOUT", orchestrator.DefaultIdeaSessionTimeout),
		DiscoveryAttempts:  envInt("DISCOVERY_ATTEMPTS", orchestrator.DefaultDiscoveryAttempts),
		DiscoveryInterval:  envDuration("DISCOVERY_INTERVAL", orchestrator.DefaultDiscoveryInterval),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("ROADMAPPER_DB_PATH must not be empty")
	}
	if c.IdeaSessionTimeout <= 0 {
		return fmt.Errorf("IDEA_SESSION_TIMEOUT must be positive, got %s", c.IdeaSessionTimeout)
	}
	if c.DiscoveryAttempts < 1 {
		return fmt.Errorf("DISCOVERY_ATTEMPTS must be positive, got %d", c.DiscoveryAttempts)
	}
	if c.DiscoveryInterval <= 0 {
		return fmt.Errorf("DISCOVERY_INTERVAL must be positive, got %s", c.DiscoveryInterval)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// EngineOptions maps the tuning knobs onto the orchestrator's options.
func (c *Config) EngineOptions() orchestrator.Options {
	return orchestrator.Options{
		IdeaSessionTimeout: c.IdeaSessionTimeout,
		DiscoveryAttempts:  c.DiscoveryAttempts,
		DiscoveryInterval:  c.DiscoveryInterval,
		StartingBranch:     c.StartingBranch,
	}
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

// envDuration accepts Go durations ("45m") or plain seconds ("2700").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
