package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("USER", "root")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "main", cfg.User)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "table", cfg.LevelPolicy)
	assert.Equal(t, 4, cfg.QuestBatch)
	assert.Equal(t, 24*time.Hour, cfg.PendingTTL)
	assert.Equal(t, 3, cfg.EventsLimit)
	assert.Equal(t, "gemini-2.5-flash", cfg.GenAIModel)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.False(t, cfg.AIEnabled())
	assert.True(t, cfg.Development())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GQ_ENV", "production")
	t.Setenv("GQ_DB_PATH", "/tmp/gq.db")
	t.Setenv("GQ_LEVEL_POLICY", "scaled")
	t.Setenv("GQ_QUEST_BATCH", "6")
	t.Setenv("GQ_PENDING_TTL", "30m")
	t.Setenv("GQ_GENAI_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/gq.db", cfg.DBPath)
	assert.Equal(t, "scaled", cfg.LevelPolicy)
	assert.Equal(t, 6, cfg.QuestBatch)
	assert.Equal(t, 30*time.Minute, cfg.PendingTTL)
	assert.True(t, cfg.AIEnabled())
	assert.False(t, cfg.Development())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"batch too large": {"GQ_QUEST_BATCH", "11"},
		"unknown policy":  {"GQ_LEVEL_POLICY", "fibonacci"},
		"bad duration":    {"GQ_AI_TIMEOUT", "soon"},
		"zero limit":      {"GQ_EVENTS_LIMIT", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestCORSOriginList(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.CORSOriginList())

	cfg.CORSOrigins = "http://localhost:3000, https://app.example.com,"
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOriginList())
}
