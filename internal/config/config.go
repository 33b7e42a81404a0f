package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"GQ_ENV" default:"development"`
	LogLevel    string `envconfig:"GQ_LOG_LEVEL" default:"info"`

	// Storage. Empty means ~/.growthquest.db.
	DBPath string `envconfig:"GQ_DB_PATH"`
	User   string `envconfig:"GQ_USER" default:"main"`

	// HTTP API
	HTTPAddr    string `envconfig:"GQ_HTTP_ADDR" default:":8080"`
	CORSOrigins string `envconfig:"GQ_CORS_ORIGINS"` // Comma-separated; empty disables CORS

	// Progression
	LevelPolicy string        `envconfig:"GQ_LEVEL_POLICY" default:"table"`
	QuestBatch  int           `envconfig:"GQ_QUEST_BATCH" default:"4"`
	PendingTTL  time.Duration `envconfig:"GQ_PENDING_TTL" default:"24h"`
	EventsLimit int           `envconfig:"GQ_EVENTS_LIMIT" default:"3"`

	// Analysis provider (optional; without a key analysis uses fallback stats)
	GenAIAPIKey string        `envconfig:"GQ_GENAI_API_KEY"`
	GenAIModel  string        `envconfig:"GQ_GENAI_MODEL" default:"gemini-2.5-flash"`
	AITimeout   time.Duration `envconfig:"GQ_AI_TIMEOUT" default:"60s"`
}

// AIEnabled returns true if an analysis provider key is configured.
func (c *Config) AIEnabled() bool {
	return strings.TrimSpace(c.GenAIAPIKey) != ""
}

// Development reports whether human-readable console logging should be used.
func (c *Config) Development() bool {
	return strings.EqualFold(c.Environment, "development")
}

// CORSOriginList returns the parsed list of allowed origins, or nil.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.QuestBatch < 1 || c.QuestBatch > 10 {
		return fmt.Errorf("GQ_QUEST_BATCH must be between 1 and 10, got %d", c.QuestBatch)
	}
	if c.EventsLimit < 1 || c.EventsLimit > 100 {
		return fmt.Errorf("GQ_EVENTS_LIMIT must be between 1 and 100, got %d", c.EventsLimit)
	}
	if c.PendingTTL <= 0 {
		return fmt.Errorf("GQ_PENDING_TTL must be positive")
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("GQ_AI_TIMEOUT must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.LevelPolicy)) {
	case "table", "scaled":
	default:
		return fmt.Errorf("GQ_LEVEL_POLICY must be table or scaled, got %q", c.LevelPolicy)
	}
	return nil
}

// Load reads configuration from GQ_* environment variables. Names are spelled
// out in full so unprefixed variables such as USER are never picked up.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
