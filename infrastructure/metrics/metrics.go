// Package metrics provides Prometheus metrics collection for the mining
// orchestrator, meta-miner, and Arena validator.
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors exposed by a factor-arena process.
type Metrics struct {
	// Mining metrics
	MiningRunsTotal        *prometheus.CounterVec
	MiningRunDuration       *prometheus.HistogramVec
	FactorsDiscoveredTotal *prometheus.CounterVec
	MinerFailuresTotal     *prometheus.CounterVec
	MinerAverageFitness    *prometheus.GaugeVec
	OrchestratorLoad       *prometheus.GaugeVec

	// Arena metrics
	ArenaEvaluationsTotal *prometheus.CounterVec
	ArenaScore            *prometheus.HistogramVec
	ArenaLayerScore       *prometheus.HistogramVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec

	// Service health
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec
}

// New creates a new Metrics instance with all collectors registered.
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registry.
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		MiningRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mining_runs_total",
				Help: "Total number of mine_parallel invocations",
			},
			[]string{"service", "status"},
		),
		MiningRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mining_run_duration_seconds",
				Help:    "Duration of a mine_parallel invocation across all miners",
				Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"service"},
		),
		FactorsDiscoveredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factors_discovered_total",
				Help: "Total number of factors discovered, by miner kind",
			},
			[]string{"service", "miner_kind"},
		),
		MinerFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "miner_failures_total",
				Help: "Total number of miner task failures, by miner kind",
			},
			[]string{"service", "miner_kind"},
		),
		MinerAverageFitness: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "miner_average_fitness",
				Help: "Running-mean fitness of factors discovered, by miner kind",
			},
			[]string{"service", "miner_kind"},
		),
		OrchestratorLoad: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orchestrator_load_ratio",
				Help: "CPU/memory load ratio observed at the orchestrator's admission check",
			},
			[]string{"service", "resource"},
		),

		ArenaEvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_evaluations_total",
				Help: "Total number of Arena evaluate_strategy invocations, by certification level",
			},
			[]string{"service", "certification"},
		),
		ArenaScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arena_overall_score",
				Help:    "Overall weighted Arena score",
				Buckets: []float64{0, .25, .5, .6, .7, .75, .8, .9, 1},
			},
			[]string{"service"},
		),
		ArenaLayerScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arena_layer_score",
				Help:    "Per-layer Arena score",
				Buckets: []float64{0, .25, .5, .6, .7, .75, .8, .9, 1},
			},
			[]string{"service", "layer"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Total number of errors",
			},
			[]string{"service", "type", "operation"},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "service_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "service_info",
				Help: "Service information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.MiningRunsTotal,
			m.MiningRunDuration,
			m.FactorsDiscoveredTotal,
			m.MinerFailuresTotal,
			m.MinerAverageFitness,
			m.OrchestratorLoad,
			m.ArenaEvaluationsTotal,
			m.ArenaScore,
			m.ArenaLayerScore,
			m.ErrorsTotal,
			m.ServiceUptime,
			m.ServiceInfo,
		)
	}

	m.ServiceInfo.WithLabelValues(serviceName, "1.0.0", environment()).Set(1)

	return m
}

// RecordMiningRun records one mine_parallel invocation.
func (m *Metrics) RecordMiningRun(service, status string, duration time.Duration) {
	m.MiningRunsTotal.WithLabelValues(service, status).Inc()
	m.MiningRunDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordFactorsDiscovered records newly discovered factors for a miner kind.
func (m *Metrics) RecordFactorsDiscovered(service, minerKind string, count int) {
	m.FactorsDiscoveredTotal.WithLabelValues(service, minerKind).Add(float64(count))
}

// RecordMinerFailure records a miner task failure.
func (m *Metrics) RecordMinerFailure(service, minerKind string) {
	m.MinerFailuresTotal.WithLabelValues(service, minerKind).Inc()
}

// SetMinerAverageFitness updates the running-mean fitness gauge for a kind.
func (m *Metrics) SetMinerAverageFitness(service, minerKind string, avg float64) {
	m.MinerAverageFitness.WithLabelValues(service, minerKind).Set(avg)
}

// SetOrchestratorLoad records the admission check's observed load ratio.
func (m *Metrics) SetOrchestratorLoad(service, resource string, ratio float64) {
	m.OrchestratorLoad.WithLabelValues(service, resource).Set(ratio)
}

// RecordArenaEvaluation records one Arena evaluation's outcome.
func (m *Metrics) RecordArenaEvaluation(service, certification string, overallScore float64) {
	m.ArenaEvaluationsTotal.WithLabelValues(service, certification).Inc()
	m.ArenaScore.WithLabelValues(service).Observe(overallScore)
}

// RecordArenaLayerScore records one layer's score within an Arena evaluation.
func (m *Metrics) RecordArenaLayerScore(service, layer string, score float64) {
	m.ArenaLayerScore.WithLabelValues(service, layer).Observe(score)
}

// RecordError records an error.
func (m *Metrics) RecordError(service, errorType, operation string) {
	m.ErrorsTotal.WithLabelValues(service, errorType, operation).Inc()
}

// UpdateUptime updates the service uptime.
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.ServiceUptime.Set(time.Since(startTime).Seconds())
}

func environment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if env == "" {
		return "development"
	}
	return env
}

func isProduction() bool {
	return environment() == "production"
}

// Enabled returns whether Prometheus metrics should be exposed.
//
// Defaults:
// - production: disabled unless explicitly enabled via METRICS_ENABLED
// - non-production: enabled unless explicitly disabled via METRICS_ENABLED
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return !isProduction()
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Global metrics instance
var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes the global metrics instance.
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance.
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New("unknown")
	}
	return globalMetrics
}
