package spill

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig is a config of the Prometheus metrics provided by the stage.
//
// An instance can be created only by the [Prometheus] function. The zero value is invalid.
type PrometheusConfig struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Options for the live segments gauge.
	Segments prometheus.GaugeOpts
	// Options for the outstanding demand gauge.
	Demand prometheus.GaugeOpts
	// Options for the created segments counter.
	SegmentsCreated prometheus.CounterOpts
	// Options for the retired segments counter.
	SegmentsRetired prometheus.CounterOpts
	// Options for the offered items counter.
	ItemsOffered prometheus.CounterOpts
	// Options for the delivered items counter.
	ItemsDelivered prometheus.CounterOpts
	// Options for the drain passes counter.
	DrainPasses prometheus.CounterOpts
	// Options for the fatal errors counter.
	Errors prometheus.CounterOpts
	// Options for the drain duration histogram.
	DrainDuration prometheus.HistogramOpts

	registerer prometheus.Registerer
}

// Prometheus returns a [PrometheusConfig] with the provided registerer. If registerer is nil,
// metrics will not be registered. Many default parameters can be configured by passing
// configuration functions.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *PrometheusConfig),
) *PrometheusConfig {
	const (
		namespace = "spill"
		subsystem = ""
	)

	c := PrometheusConfig{
		registerer: registerer,
		Namespace:  namespace,
		Subsystem:  subsystem,
		Segments: prometheus.GaugeOpts{
			Name: "segments",
			Help: "Number of live segments",
		},
		Demand: prometheus.GaugeOpts{
			Name: "demand",
			Help: "Outstanding downstream demand",
		},
		SegmentsCreated: prometheus.CounterOpts{
			Name: "segments_created",
			Help: "Number of created segments",
		},
		SegmentsRetired: prometheus.CounterOpts{
			Name: "segments_retired",
			Help: "Number of drained segments that were deleted",
		},
		ItemsOffered: prometheus.CounterOpts{
			Name: "items_offered",
			Help: "Number of signals spilled into segments",
		},
		ItemsDelivered: prometheus.CounterOpts{
			Name: "items_delivered",
			Help: "Number of items delivered downstream",
		},
		DrainPasses: prometheus.CounterOpts{
			Name: "drain_passes",
			Help: "Number of drain passes",
		},
		Errors: prometheus.CounterOpts{
			Name: "errors",
			Help: "Number of fatal stage errors",
		},
		DrainDuration: prometheus.HistogramOpts{
			Name:    "drain_duration",
			Help:    "Duration of a drain pass in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	return &c
}

func (c *PrometheusConfig) metrics() *metrics {
	m := metrics{
		segments:        prometheus.NewGauge(c.gauge(c.Segments)),
		demand:          prometheus.NewGauge(c.gauge(c.Demand)),
		segmentsCreated: prometheus.NewCounter(c.counter(c.SegmentsCreated)),
		segmentsRetired: prometheus.NewCounter(c.counter(c.SegmentsRetired)),
		itemsOffered:    prometheus.NewCounterVec(c.counter(c.ItemsOffered), []string{"kind"}),
		itemsDelivered:  prometheus.NewCounter(c.counter(c.ItemsDelivered)),
		drainPasses:     prometheus.NewCounter(c.counter(c.DrainPasses)),
		errors:          prometheus.NewCounter(c.counter(c.Errors)),
		drainDuration:   prometheus.NewHistogram(c.histogram(c.DrainDuration)),
	}

	if c.registerer != nil {
		c.registerer.MustRegister(
			m.segments,
			m.demand,
			m.segmentsCreated,
			m.segmentsRetired,
			m.itemsOffered,
			m.itemsDelivered,
			m.drainPasses,
			m.errors,
			m.drainDuration,
		)
	}

	return &m
}

func (c *PrometheusConfig) gauge(opts prometheus.GaugeOpts) prometheus.GaugeOpts {
	opts.Namespace, opts.Subsystem = c.Namespace, c.Subsystem
	return opts
}

func (c *PrometheusConfig) counter(opts prometheus.CounterOpts) prometheus.CounterOpts {
	opts.Namespace, opts.Subsystem = c.Namespace, c.Subsystem
	return opts
}

func (c *PrometheusConfig) histogram(opts prometheus.HistogramOpts) prometheus.HistogramOpts {
	opts.Namespace, opts.Subsystem = c.Namespace, c.Subsystem
	return opts
}

type metrics struct {
	segments        prometheus.Gauge
	demand          prometheus.Gauge
	segmentsCreated prometheus.Counter
	segmentsRetired prometheus.Counter
	itemsOffered    *prometheus.CounterVec
	itemsDelivered  prometheus.Counter
	drainPasses     prometheus.Counter
	errors          prometheus.Counter
	drainDuration   prometheus.Histogram
}
