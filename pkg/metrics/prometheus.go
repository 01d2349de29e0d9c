// Package metrics provides Prometheus metrics for the rally service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	entryBuckets     []float64
	registry         prometheus.Registerer

	// Race pipeline
	racesStarted       prometheus.Counter
	racesSettled       prometheus.Counter
	racesRejected      *prometheus.CounterVec
	raceEntries        prometheus.Histogram
	simulationLatency  prometheus.Histogram
	breakdowns         prometheus.Counter
	settlementLatency  prometheus.Histogram
	settlementFailures *prometheus.CounterVec
	feesCollected      prometheus.Counter
	prizesPaid         prometheus.Counter
	duplicateRequests  prometheus.Counter
	balanceAdjustments prometheus.Counter

	// Store
	storeQueryLatency *prometheus.HistogramVec
	totalTeams        prometheus.Gauge
	totalCars         prometheus.Gauge
	totalRaces        prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rally",
		subsystem:        "races",
		histogramBuckets: prometheus.DefBuckets,
		entryBuckets:     []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.racesStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "started_total",
		Help:      "Races that passed validation and were simulated",
	})
	m.racesSettled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "settled_total",
		Help:      "Races whose settlement committed",
	})
	m.racesRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rejected_total",
		Help:      "Races rejected before simulation by reason",
	}, []string{"reason"})
	m.raceEntries = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries",
		Help:      "Number of entries per simulated race",
		Buckets:   m.entryBuckets,
	})
	m.simulationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_latency_milliseconds",
		Help:      "Time spent simulating one race",
		Buckets:   m.histogramBuckets,
	})
	m.breakdowns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "breakdowns_total",
		Help:      "Entries that suffered a mechanical incident",
	})
	m.settlementLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "settlement_latency_milliseconds",
		Help:      "Duration of the atomic settlement transaction",
		Buckets:   m.histogramBuckets,
	})
	m.settlementFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "settlement_failures_total",
		Help:      "Settlements rolled back by failing step",
	}, []string{"step"})
	m.feesCollected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fees_collected_total",
		Help:      "Entry fees debited from team balances",
	})
	m.prizesPaid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prizes_paid_total",
		Help:      "Prize money credited to team balances",
	})
	m.duplicateRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_requests_total",
		Help:      "Race submissions rejected because their request id was already used",
	})
	m.balanceAdjustments = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "balance_adjustments_total",
		Help:      "Team balance deltas applied inside committed settlements",
	})

	m.storeQueryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "query_latency_milliseconds",
		Help:      "Store operation latency by operation",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})
	m.totalTeams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "teams",
		Help:      "Registered teams",
	})
	m.totalCars = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "cars",
		Help:      "Registered cars",
	})
	m.totalRaces = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "races",
		Help:      "Recorded races",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "errors",
		Name:      "by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "errors",
		Name:      "by_endpoint_total",
		Help:      "Errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})
}

// RecordRaceStarted counts a simulated race and observes its entry count.
func RecordRaceStarted(entries int) {
	globalManager.racesStarted.Inc()
	globalManager.raceEntries.Observe(float64(entries))
}

// RecordRaceSettled counts a committed settlement.
func RecordRaceSettled(latencyMs float64) {
	globalManager.racesSettled.Inc()
	globalManager.settlementLatency.Observe(latencyMs)
}

// RecordRaceRejected counts a race refused before simulation.
func RecordRaceRejected(reason string) {
	globalManager.racesRejected.WithLabelValues(reason).Inc()
}

// RecordSimulationLatency observes the time spent in the simulator.
func RecordSimulationLatency(latencyMs float64) {
	globalManager.simulationLatency.Observe(latencyMs)
}

// RecordBreakdowns adds n mechanical incidents.
func RecordBreakdowns(n int) {
	if n > 0 {
		globalManager.breakdowns.Add(float64(n))
	}
}

// RecordSettlementFailure counts a rolled back settlement.
func RecordSettlementFailure(step string) {
	globalManager.settlementFailures.WithLabelValues(step).Inc()
}

// RecordMoneyFlow adds the fees debited and prizes credited by one settlement.
func RecordMoneyFlow(fees, prizes float64) {
	if fees > 0 {
		globalManager.feesCollected.Add(fees)
	}
	if prizes > 0 {
		globalManager.prizesPaid.Add(prizes)
	}
}

// RecordBalanceAdjustments adds n applied team deltas.
func RecordBalanceAdjustments(n int) {
	if n > 0 {
		globalManager.balanceAdjustments.Add(float64(n))
	}
}

// RecordDuplicateRequest counts a replayed race request id.
func RecordDuplicateRequest() {
	globalManager.duplicateRequests.Inc()
}

// RecordStoreLatency observes one store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateStoreTotals sets the team, car and race gauges.
func UpdateStoreTotals(teams, cars, races int) {
	globalManager.totalTeams.Set(float64(teams))
	globalManager.totalCars.Set(float64(cars))
	globalManager.totalRaces.Set(float64(races))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
