// Package metrics exports custom element registry activity to Prometheus.
//
// A Collector implements both registry.Observer and reactions.Observer:
//
//	m := metrics.New(metrics.WithRegistry(reg))
//	r := realm.New(host, doc,
//	    realm.WithRegistryOptions(registry.WithObserver(m)),
//	    realm.WithReactionOptions(reactions.WithObserver(m)),
//	)
//
// Metrics collected:
//   - elements_definitions_total: successful definitions
//   - elements_definition_errors_total: failed definitions by error kind
//   - elements_defined: current number of definitions
//   - elements_upgrade_candidates: elements queued for upgrade per definition
//   - elements_upgrades_total: upgrade reactions by result
//   - elements_callbacks_total: lifecycle callbacks by name and result
//   - elements_upgrade_sweep_elements: elements visited per upgrade sweep
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/elements/pkg/definition"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/reactions"
	"github.com/vango-dev/elements/pkg/registry"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "elements").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for element counts.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "elements",
		Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records registry and reaction events.
type Collector struct {
	definitions      prometheus.Counter
	definitionErrors *prometheus.CounterVec
	defined          prometheus.Gauge
	candidates       prometheus.Histogram
	upgrades         *prometheus.CounterVec
	callbacks        *prometheus.CounterVec
	sweepElements    prometheus.Histogram
}

var (
	_ registry.Observer  = (*Collector)(nil)
	_ reactions.Observer = (*Collector)(nil)
)

// New creates and registers a Collector.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		definitions: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "definitions_total",
			Help:        "Total number of successful custom element definitions",
			ConstLabels: config.ConstLabels,
		}),

		definitionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "definition_errors_total",
			Help:        "Total number of failed custom element definitions",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		defined: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "defined",
			Help:        "Number of custom element definitions in the registry",
			ConstLabels: config.ConstLabels,
		}),

		candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "upgrade_candidates",
			Help:        "Elements queued for upgrade by each definition",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		upgrades: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "upgrades_total",
			Help:        "Total number of upgrade reactions by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "callbacks_total",
			Help:        "Total number of lifecycle callbacks invoked",
			ConstLabels: config.ConstLabels,
		}, []string{"callback", "result"}),

		sweepElements: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "upgrade_sweep_elements",
			Help:        "Elements visited by each upgrade sweep",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// Defined implements registry.Observer.
func (c *Collector) Defined(_ *definition.Definition, candidates int) {
	c.definitions.Inc()
	c.defined.Inc()
	c.candidates.Observe(float64(candidates))
}

// DefineFailed implements registry.Observer.
func (c *Collector) DefineFailed(_ string, err *registry.DefinitionError) {
	c.definitionErrors.WithLabelValues(err.Kind.String()).Inc()
}

// UpgradeSwept implements registry.Observer.
func (c *Collector) UpgradeSwept(_ *dom.Node, elements int) {
	c.sweepElements.Observe(float64(elements))
}

// ElementUpgraded implements reactions.Observer.
func (c *Collector) ElementUpgraded(_ *dom.Node, _ *definition.Definition, err error) {
	c.upgrades.WithLabelValues(result(err)).Inc()
}

// CallbackInvoked implements reactions.Observer.
func (c *Collector) CallbackInvoked(_ *dom.Node, name definition.CallbackName, err error) {
	c.callbacks.WithLabelValues(string(name), result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
