package metrics

import (
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resume-wizard/internal/shared/telemetry"
)

// Registry holds every collector exported by the service.
var Registry = prometheus.NewRegistry()

var (
	generationStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_started_total",
		Help: "Total generation requests sent to the external generator",
	})
	generationCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_completed_total",
		Help: "Total generations that produced a scored artifact",
	})
	generationFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_failed_total",
		Help: "Total failed generations by reason",
	}, []string{"reason"})
	generationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_duration_ms",
		Help:    "Generation duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})
	submitRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wizard_submit_rejected_total",
		Help: "Submit requests rejected because one was already in flight",
	})
	sessionSaves = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_saves_total",
		Help: "Session checkpoint attempts by outcome",
	}, []string{"outcome"})
	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wizard_active_sessions",
		Help: "Wizard sessions currently held in memory",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		generationStarted,
		generationCompleted,
		generationFailed,
		generationDuration,
		submitRejected,
		sessionSaves,
		activeSessions,
	)
}

// IncGenerationStarted increments the started counter.
func IncGenerationStarted() {
	generationStarted.Inc()
}

// IncGenerationCompleted increments the completed counter.
func IncGenerationCompleted() {
	generationCompleted.Inc()
}

// IncGenerationFailed increments the failed counter for reason
// ("unavailable" or "malformed").
func IncGenerationFailed(reason string) {
	generationFailed.WithLabelValues(reason).Inc()
}

// ObserveGenerationDurationMs records a generation duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// IncSubmitRejected counts a duplicate submit.
func IncSubmitRejected() {
	submitRejected.Inc()
}

// IncSessionSave counts a checkpoint by outcome ("ok" or "error").
func IncSessionSave(outcome string) {
	sessionSaves.WithLabelValues(outcome).Inc()
}

// SetActiveSessions reports the in-memory session count.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// RegisterDB exports connection pool stats for db under the given name.
// Registering the same name twice keeps the first collector.
func RegisterDB(db *sql.DB, name string) {
	err := Registry.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) {
		telemetry.Warn("metrics.register_db_failed", map[string]any{"name": name, "error": err})
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
