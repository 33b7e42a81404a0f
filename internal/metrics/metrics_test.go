package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthquest/internal/engine"
)

func getMetricsBody(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_QuestCompleted(t *testing.T) {
	m := New()
	m.QuestCompleted(engine.DifficultyHard, []engine.StatIncrease{
		{Stat: engine.StatFocus, Drawn: 3, Realized: 3},
		{Stat: engine.StatSocial, Drawn: 2, Realized: 1},
	})
	m.QuestCompleted(engine.DifficultyHard, nil)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `growthquest_quests_completed_total{difficulty="hard"} 2`)
	assert.Contains(t, body, `growthquest_stat_points_total{stat="focus"} 3`)
	assert.Contains(t, body, `growthquest_stat_points_total{stat="social"} 1`)
}

func TestMetrics_LevelUp(t *testing.T) {
	m := New()
	m.LevelUp(4)
	m.LevelUp(2)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "growthquest_level_ups_total 2")
	assert.Contains(t, body, "growthquest_highest_level 4")
}

func TestMetrics_QuestsCreatedAndAnalysis(t *testing.T) {
	m := New()
	m.QuestsCreated(engine.SourceGenerated, 4)
	m.Analysis(engine.AnalysisOutcomeFallback)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `growthquest_quests_created_total{source="generated"} 4`)
	assert.Contains(t, body, `growthquest_analyses_total{outcome="fallback"} 1`)
}

func TestMetrics_ObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/v1/users/:id/stats", "200", 0.01)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `growthquest_http_requests_total{code="200",route="/api/v1/users/:id/stats"} 1`)
	assert.Contains(t, body, "growthquest_http_request_duration_seconds")
}
