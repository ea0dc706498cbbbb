// Package spill provides a stream stage that decouples a fast producer from a slow consumer by
// spilling every signal into disk-backed segments.
//
// The stage requests unbounded demand from its source, so the source is never slowed down.
// Signals are encoded into envelopes and appended to a rolling queue of segments. A drain loop
// running on a [Scheduler] hands them to the subscriber only as fast as the subscriber's demand
// allows. Segments are deleted as soon as they are read, so storage usage follows the backlog.
package spill

import (
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/teenjuna/spill/internal/rolling"
)

const tracerName = "github.com/teenjuna/spill"

// Stage is a [Publisher] that buffers the signals of its source in segments until its
// subscriber asks for them. A stage accepts a single subscriber.
type Stage[T any] struct {
	cfg     *config[T]
	source  Publisher[T]
	metrics *metrics
	tracer  trace.Tracer

	subscribed atomic.Bool
}

var _ Publisher[any] = (*Stage[any])(nil)

// New creates a stage on top of source. Nothing happens until [Stage.Subscribe] is called.
func New[T any](source Publisher[T], options ...Option[T]) *Stage[T] {
	if source == nil {
		panic("source can't be nil")
	}

	cfg := newConfig(options...)

	return &Stage[T]{
		cfg:     cfg,
		source:  source,
		metrics: cfg.prometheus.metrics(),
		tracer:  cfg.tracerProvider.Tracer(tracerName),
	}
}

// Subscribe creates the segment queue, hands sub its [Subscription] and subscribes to the
// source with unbounded demand. Every subscriber after the first one receives
// [ErrAlreadySubscribed].
func (s *Stage[T]) Subscribe(sub Subscriber[T]) {
	if sub == nil {
		panic("subscriber can't be nil")
	}

	if s.subscribed.Swap(true) {
		sub.OnSubscribe(noopSubscription{})
		sub.OnError(ErrAlreadySubscribed)
		return
	}

	factory := s.cfg.factory
	if factory == nil {
		var err error
		if factory, err = s.cfg.storage.factory(s.cfg.logger); err != nil {
			err = fmt.Errorf("create segment factory: %w", err)
			s.cfg.logger.WithError(err).Error("subscribe")
			sub.OnSubscribe(noopSubscription{})
			sub.OnError(err)
			return
		}
	}

	queue := rolling.New(factory, s.cfg.storage.MaxItemsPerSegment, rolling.Options{
		SizeLimit: s.cfg.storage.StorageSizeLimitBytes,
		Retry:     s.cfg.retryPolicy,
		Logger:    s.cfg.logger,
		OnCreate: func() {
			s.metrics.segments.Inc()
			s.metrics.segmentsCreated.Inc()
		},
		OnRetire: func() {
			s.metrics.segments.Dec()
			s.metrics.segmentsRetired.Inc()
		},
		OnDiscard: func() {
			s.metrics.segments.Dec()
		},
	})

	subscription := newSubscription(s, queue, sub)
	sub.OnSubscribe(subscription)
	s.source.Subscribe(&inlet[T]{s: subscription})
}
