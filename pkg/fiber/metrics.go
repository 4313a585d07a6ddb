package fiber

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors of a root.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "fiber").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for commit duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "fiber",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the scheduler and committer collectors. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	units          prometheus.Counter
	passes         *prometheus.CounterVec
	commits        prometheus.Counter
	yields         prometheus.Counter
	hostOps        *prometheus.CounterVec
	deletions      prometheus.Counter
	effects        prometheus.Counter
	queueDepth     prometheus.Gauge
	commitDuration prometheus.Histogram
}

// NewMetrics registers the collectors and returns them.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		units: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "units_total",
			Help:        "Total number of fibers rendered",
			ConstLabels: config.ConstLabels,
		}),
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of render passes started",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
		commits: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of commits",
			ConstLabels: config.ConstLabels,
		}),
		yields: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "yields_total",
			Help:        "Total number of times the work loop yielded on budget",
			ConstLabels: config.ConstLabels,
		}),
		hostOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_ops_total",
			Help:        "Total number of host adapter calls made by the committer",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),
		deletions: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "deletions_total",
			Help:        "Total number of fiber subtrees deleted",
			ConstLabels: config.ConstLabels,
		}),
		effects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_total",
			Help:        "Total number of effects run",
			ConstLabels: config.ConstLabels,
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_queue_depth",
			Help:        "Components waiting for a re-render pass",
			ConstLabels: config.ConstLabels,
		}),
		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

func (m *Metrics) unit() {
	if m != nil {
		m.units.Inc()
	}
}

func (m *Metrics) pass(kind string) {
	if m != nil {
		m.passes.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) yield() {
	if m != nil {
		m.yields.Inc()
	}
}

func (m *Metrics) hostOp(op string) {
	if m != nil {
		m.hostOps.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) queue(depth int) {
	if m != nil {
		m.queueDepth.Set(float64(depth))
	}
}

func (m *Metrics) commit(d time.Duration, deletions, effects int) {
	if m == nil {
		return
	}
	m.commits.Inc()
	m.commitDuration.Observe(d.Seconds())
	m.deletions.Add(float64(deletions))
	m.effects.Add(float64(effects))
}
