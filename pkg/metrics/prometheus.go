// Package metrics provides Prometheus metrics for the reward distribution
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus instruments for the engine.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	enabled   bool
	registry  prometheus.Registerer

	// Distribution metrics.
	gamesCreated     *prometheus.CounterVec
	gamesSettled     prometheus.Counter
	claimsPaid       prometheus.Counter
	valueDistributed *prometheus.CounterVec
	participants     prometheus.Histogram

	// Halving clock.
	halvingEra     prometheus.Gauge
	halvingCounter prometheus.Gauge

	// Command log / applier.
	commandsApplied *prometheus.CounterVec
	applyLatency    prometheus.Histogram
	commandLogDepth prometheus.Gauge

	// HTTP surface.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors by component and reason.
	errorsByComponent *prometheus.CounterVec

	// Store size.
	gamesTotal prometheus.Gauge

	// System performance.
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global manager on a custom registry, so default Go collectors stay out of
// the scrape unless main opts back in.
var (
	customRegistry = prometheus.NewRegistry()       //nolint:gochecknoglobals // singleton registry
	globalManager  *Manager                         //nolint:gochecknoglobals // singleton manager
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "divvy",
		subsystem: "engine",
		buckets:   prometheus.DefBuckets,
		enabled:   true,
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	factory := promauto.With(m.registry)

	m.gamesCreated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "games_created_total",
		Help: "Games created, labeled by distribution track.",
	}, []string{"track"})

	m.gamesSettled = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "games_settled_total",
		Help: "Games settled.",
	})

	m.claimsPaid = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "claims_paid_total",
		Help: "Successful claims.",
	})

	m.valueDistributed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "value_distributed_total",
		Help: "Value credited through claims, labeled by asset.",
	}, []string{"asset"})

	m.participants = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "participants_per_game",
		Help:    "Participant count per settled game.",
		Buckets: []float64{2, 5, 10, 25, 50, 100},
	})

	m.halvingEra = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "halving_era",
		Help: "Current scheduled-emission era.",
	})

	m.halvingCounter = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "halving_counter",
		Help: "Scheduled-emission games created.",
	})

	m.commandsApplied = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "commands_applied_total",
		Help: "Commands applied, labeled by command and outcome.",
	}, []string{"command", "outcome"})

	m.applyLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "apply_latency_ms",
		Help:    "Command apply latency in milliseconds.",
		Buckets: m.buckets,
	})

	m.commandLogDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "command_log_depth",
		Help: "Pending commands in the log.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests, labeled by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: m.buckets,
	}, []string{"endpoint", "method"})

	m.errorsByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_total",
		Help: "Errors, labeled by component and reason.",
	}, []string{"component", "reason"})

	m.gamesTotal = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "games_total",
		Help: "Games held in the store.",
	})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_memory_usage_bytes",
		Help: "System memory usage in bytes.",
	})

	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_goroutine_count",
		Help: "Number of goroutines.",
	})

	m.systemGCPauseTime = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "system_gc_pause_time_milliseconds",
		Help:    "GC pause time in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// GetRegistry exposes the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level recording helpers against the global manager.

// RecordGameCreated counts one created game on the given track.
func RecordGameCreated(track string) {
	if globalManager.enabled {
		globalManager.gamesCreated.WithLabelValues(track).Inc()
	}
}

// RecordGameSettled counts one settlement and its participant count.
func RecordGameSettled(participants int) {
	if globalManager.enabled {
		globalManager.gamesSettled.Inc()
		globalManager.participants.Observe(float64(participants))
	}
}

// RecordClaimPaid counts one paid claim and the credited value.
func RecordClaimPaid(asset string, amount uint64) {
	if globalManager.enabled {
		globalManager.claimsPaid.Inc()
		globalManager.valueDistributed.WithLabelValues(asset).Add(float64(amount))
	}
}

// UpdateHalvingEra sets the current era gauge.
func UpdateHalvingEra(era uint64) {
	if globalManager.enabled {
		globalManager.halvingEra.Set(float64(era))
	}
}

// UpdateHalvingCounter sets the scheduled-games counter gauge.
func UpdateHalvingCounter(counter uint64) {
	if globalManager.enabled {
		globalManager.halvingCounter.Set(float64(counter))
	}
}

// RecordCommandApplied counts one command application.
func RecordCommandApplied(command string, ok bool) {
	if globalManager.enabled {
		outcome := "applied"
		if !ok {
			outcome = "rejected"
		}
		globalManager.commandsApplied.WithLabelValues(command, outcome).Inc()
	}
}

// RecordApplyLatency observes one command apply duration in milliseconds.
func RecordApplyLatency(ms float64) {
	if globalManager.enabled {
		globalManager.applyLatency.Observe(ms)
	}
}

// UpdateCommandLogDepth sets the pending command gauge.
func UpdateCommandLogDepth(depth int) {
	if globalManager.enabled {
		globalManager.commandLogDepth.Set(float64(depth))
	}
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	}
}

// RecordHTTPRequestDuration observes one HTTP request duration in
// milliseconds.
func RecordHTTPRequestDuration(endpoint, method string, ms float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(ms)
	}
}

// RecordErrorByComponent counts one error for a component and reason.
func RecordErrorByComponent(component, reason string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, reason).Inc()
	}
}

// UpdateGamesTotal sets the stored-games gauge.
func UpdateGamesTotal(n int) {
	if globalManager.enabled {
		globalManager.gamesTotal.Set(float64(n))
	}
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}
