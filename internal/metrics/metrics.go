// Package metrics provides Prometheus metrics for growthquest.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"growthquest/internal/engine"
)

// Metrics holds all Prometheus metrics. It implements engine.Observer.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	QuestsCreatedTotal  *prometheus.CounterVec
	QuestsCompleted     *prometheus.CounterVec
	StatPointsTotal     *prometheus.CounterVec
	LevelUpsTotal       prometheus.Counter
	HighestLevel        prometheus.Gauge
	AnalysesTotal       *prometheus.CounterVec

	registry *prometheus.Registry
	mu       sync.Mutex
	highest  int
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "growthquest_http_requests_total",
				Help: "Total HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "growthquest_http_request_duration_seconds",
				Help:    "HTTP request duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		QuestsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "growthquest_quests_created_total",
				Help: "Quests created by source.",
			},
			[]string{"source"},
		),
		QuestsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "growthquest_quests_completed_total",
				Help: "Quests completed by difficulty.",
			},
			[]string{"difficulty"},
		),
		StatPointsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "growthquest_stat_points_total",
				Help: "Realized stat points gained from quests by stat.",
			},
			[]string{"stat"},
		),
		LevelUpsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "growthquest_level_ups_total",
				Help: "Total committed level-ups.",
			},
		),
		HighestLevel: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "growthquest_highest_level",
				Help: "Highest level reached since start.",
			},
		),
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "growthquest_analyses_total",
				Help: "Initial analyses by outcome (ai, fallback, direct, rejected).",
			},
			[]string{"outcome"},
		),
		registry: reg,
	}

	reg.MustRegister(m.HTTPRequestsTotal)
	reg.MustRegister(m.HTTPRequestDuration)
	reg.MustRegister(m.QuestsCreatedTotal)
	reg.MustRegister(m.QuestsCompleted)
	reg.MustRegister(m.StatPointsTotal)
	reg.MustRegister(m.LevelUpsTotal)
	reg.MustRegister(m.HighestLevel)
	reg.MustRegister(m.AnalysesTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, code string, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

func (m *Metrics) QuestsCreated(source string, n int) {
	m.QuestsCreatedTotal.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) QuestCompleted(d engine.Difficulty, increases []engine.StatIncrease) {
	m.QuestsCompleted.WithLabelValues(string(d)).Inc()
	for _, inc := range increases {
		m.StatPointsTotal.WithLabelValues(string(inc.Stat)).Add(float64(inc.Realized))
	}
}

// LevelUp counts a level-up. The gauge only moves upward.
func (m *Metrics) LevelUp(newLevel int) {
	m.LevelUpsTotal.Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	if newLevel > m.highest {
		m.highest = newLevel
		m.HighestLevel.Set(float64(newLevel))
	}
}

func (m *Metrics) Analysis(outcome string) {
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
}

var _ engine.Observer = (*Metrics)(nil)
