package spill

import (
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/teenjuna/spill/codec"
	"github.com/teenjuna/spill/codec/json"
	"github.com/teenjuna/spill/codec/s2"
	"github.com/teenjuna/spill/retry"
	"github.com/teenjuna/spill/segment"
)

type Option[T any] = func(*config[T])

// WithFactory makes the stage create segments with the provided factory. It takes precedence
// over the backend settings.
func WithFactory[T any](factory segment.Factory) Option[T] {
	if factory == nil {
		panic("factory can't be nil")
	}
	return func(c *config[T]) {
		c.factory = factory
	}
}

// WithDir sets the directory where segment files are created.
func WithDir[T any](dir string) Option[T] {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		panic("dir can't be blank")
	}
	return func(c *config[T]) {
		c.storage.Dir = dir
	}
}

func WithBackend[T any](backend Backend) Option[T] {
	if !backend.valid() {
		panic("unknown backend")
	}
	return func(c *config[T]) {
		c.storage.Backend = backend
	}
}

func WithCodec[T any](codec codec.Codec[T]) Option[T] {
	if codec == nil {
		panic("codec can't be nil")
	}
	return func(c *config[T]) {
		c.codec = codec
	}
}

// WithCompression compresses encoded values of at least threshold bytes with S2 before they
// are spilled.
func WithCompression[T any](threshold int) Option[T] {
	if threshold < 0 {
		panic("compression threshold can't be < 0")
	}
	return func(c *config[T]) {
		c.compression = &threshold
	}
}

func WithMaxItemsPerSegment[T any](items int) Option[T] {
	if items < 2 {
		panic("max items per segment can't be < 2")
	}
	return func(c *config[T]) {
		c.storage.MaxItemsPerSegment = items
	}
}

func WithScheduler[T any](scheduler Scheduler) Option[T] {
	if scheduler == nil {
		panic("scheduler can't be nil")
	}
	return func(c *config[T]) {
		c.scheduler = scheduler
	}
}

func WithLogger[T any](logger *logrus.Entry) Option[T] {
	if logger == nil {
		panic("logger can't be nil")
	}
	return func(c *config[T]) {
		c.logger = logger
	}
}

// WithPrometheus makes the stage report metrics described by the provided config. Use
// [Prometheus] to create it.
func WithPrometheus[T any](prometheus *PrometheusConfig) Option[T] {
	if prometheus == nil {
		panic("prometheus config can't be nil")
	}
	return func(c *config[T]) {
		c.prometheus = prometheus
	}
}

func WithTracerProvider[T any](provider trace.TracerProvider) Option[T] {
	if provider == nil {
		panic("tracer provider can't be nil")
	}
	return func(c *config[T]) {
		c.tracerProvider = provider
	}
}

// WithRetryPolicy sets the policy used when a segment can't be created.
func WithRetryPolicy[T any](policy retry.Policy) Option[T] {
	if policy == nil {
		panic("policy can't be nil")
	}
	return func(c *config[T]) {
		c.retryPolicy = policy
	}
}

func WithCacheStrategy[T any](strategy segment.CacheStrategy) Option[T] {
	if strategy < segment.CacheLRU || strategy > segment.CacheHard {
		panic("unknown cache strategy")
	}
	return func(c *config[T]) {
		c.storage.CacheStrategy = strategy
	}
}

// WithCacheSize sets the number of items the segment cache should hold. Zero lets the backend
// decide.
func WithCacheSize[T any](items int) Option[T] {
	if items < 0 {
		panic("cache size can't be < 0")
	}
	return func(c *config[T]) {
		c.storage.CacheSizeItems = items
	}
}

// WithStorageSizeLimit caps the bytes held by live segments. Zero means no limit. Once the
// limit is reached the stage fails with [rolling.ErrStorageFull].
func WithStorageSizeLimit[T any](bytes int64) Option[T] {
	if bytes < 0 {
		panic("storage size limit can't be < 0")
	}
	return func(c *config[T]) {
		c.storage.StorageSizeLimitBytes = bytes
	}
}

// WithStorage replaces every storage setting at once. See [LoadStorageConfig].
func WithStorage[T any](storage StorageConfig) Option[T] {
	if err := storage.validate(); err != nil {
		panic(err.Error())
	}
	return func(c *config[T]) {
		c.storage = storage
	}
}

type config[T any] struct {
	factory        segment.Factory
	storage        StorageConfig
	codec          codec.Codec[T]
	compression    *int
	scheduler      Scheduler
	logger         *logrus.Entry
	prometheus     *PrometheusConfig
	tracerProvider trace.TracerProvider
	retryPolicy    retry.Policy
}

func newConfig[T any](options ...Option[T]) *config[T] {
	options = append([]Option[T]{
		WithStorage[T](DefaultStorageConfig()),
		WithCodec(json.New[T]()),
		WithScheduler[T](NewGoScheduler()),
		WithLogger[T](logrus.StandardLogger().WithField("component", "spill")),
		WithPrometheus[T](Prometheus(nil)),
		WithTracerProvider[T](otel.GetTracerProvider()),
		WithRetryPolicy[T](retry.Never()),
	}, options...)

	cfg := config[T]{}
	for _, opt := range options {
		opt(&cfg)
	}

	return &cfg
}

func (c *config[T]) values() codec.Codec[T] {
	if c.compression == nil {
		return c.codec.Derive()
	}
	return s2.New(c.codec.Derive(), *c.compression)
}
