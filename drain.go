package spill

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teenjuna/spill/envelope"
	"github.com/teenjuna/spill/internal/rolling"
)

// Drain states. A drain is scheduled only on the idle -> running transition; requests made
// while running move the state to pending, which makes the running pass loop once more.
const (
	idle int32 = iota
	running
	pending
	done
)

type subscription[T any] struct {
	downstream Subscriber[T]
	queue      *rolling.Queue
	guard      *guard
	// Upstream signals and drain passes run on different goroutines, so each side owns a codec.
	encoder   *envelope.Codec[T]
	decoder   *envelope.Codec[T]
	scheduler Scheduler
	logger    *logrus.Entry
	metrics   *metrics
	tracer    trace.Tracer

	demand    atomic.Int64
	state     atomic.Int32
	cancelled atomic.Bool
	// Delivered after the queued signals.
	failure atomic.Pointer[error]
	// Delivered before the queued signals.
	violation atomic.Bool

	mu                sync.Mutex
	upstream          Subscription
	upstreamCancelled bool
}

var _ Subscription = (*subscription[any])(nil)

func newSubscription[T any](
	stage *Stage[T],
	queue *rolling.Queue,
	downstream Subscriber[T],
) *subscription[T] {
	encoder := envelope.NewCodec(stage.cfg.values())

	return &subscription[T]{
		downstream: downstream,
		queue:      queue,
		guard: &guard{
			queue:  queue,
			logger: stage.cfg.logger,
		},
		encoder:   encoder,
		decoder:   encoder.Derive(),
		scheduler: stage.cfg.scheduler,
		logger:    stage.cfg.logger,
		metrics:   stage.metrics,
		tracer:    stage.tracer,
	}
}

func (s *subscription[T]) Request(n int64) {
	switch {
	case n < 0:
		s.logger.WithField("demand", n).Error("invalid demand")
		s.violation.Store(true)
		s.cancelUpstream()
	case n == 0:
		return
	default:
		for {
			current := s.demand.Load()
			next := current + n
			if n > math.MaxInt64-current {
				next = math.MaxInt64
			}
			if s.demand.CompareAndSwap(current, next) {
				s.metrics.demand.Set(float64(next))
				break
			}
		}
	}
	s.requestDrain()
}

func (s *subscription[T]) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	s.logger.Debug("subscription cancelled")
	s.cancelUpstream()
	s.guard.dispose()
	s.metrics.demand.Set(0)
}

func (s *subscription[T]) requestDrain() {
	for {
		switch s.state.Load() {
		case idle:
			if s.state.CompareAndSwap(idle, running) {
				s.scheduler.Schedule(s.drain)
				return
			}
		case running:
			if s.state.CompareAndSwap(running, pending) {
				return
			}
		default:
			return
		}
	}
}

func (s *subscription[T]) drain() {
	_, span := s.tracer.Start(context.Background(), "spill.drain")
	started := time.Now()

	var delivered int64
	defer func() {
		span.SetAttributes(attribute.Int64("spill.delivered", delivered))
		span.End()
		s.metrics.drainPasses.Inc()
		s.metrics.drainDuration.Observe(time.Since(started).Seconds())
	}()

	for {
		if s.pass(span, &delivered) {
			s.state.Store(done)
			return
		}
		if s.state.CompareAndSwap(running, idle) {
			return
		}
		// Pending. Someone asked for a drain while this one was running.
		s.state.Store(running)
	}
}

// pass delivers queued signals while there is demand. It returns true once the subscription
// is over and no more passes may run.
func (s *subscription[T]) pass(span trace.Span, delivered *int64) bool {
	demand := s.demand.Load()
	for {
		if s.cancelled.Load() {
			return true
		}
		if s.violation.Load() {
			s.terminate(span, ErrInvalidDemand)
			return true
		}

		// Without demand only a terminal signal can be delivered, so the head is only looked at.
		read := s.queue.Poll
		if demand == 0 {
			read = s.queue.Peek
		}
		data, ok, err := read()
		if err != nil {
			s.terminate(span, fmt.Errorf("read segments: %w", err))
			return true
		}
		if !ok {
			if failure := s.failure.Load(); failure != nil {
				s.terminate(span, *failure)
				return true
			}
			return false
		}

		if demand == 0 {
			kind, err := envelope.KindOf(data)
			if err != nil {
				s.terminate(span, fmt.Errorf("decode envelope: %w", err))
				return true
			}
			if kind == envelope.KindNext {
				return false
			}
		}

		e, err := s.decoder.Decode(data)
		if err != nil {
			s.terminate(span, fmt.Errorf("decode envelope: %w", err))
			return true
		}

		if e.Terminal() {
			s.finish(e)
			return true
		}

		if s.cancelled.Load() {
			return true
		}
		s.downstream.OnNext(e.Value())
		*delivered++
		s.metrics.itemsDelivered.Inc()
		demand = s.consume()
	}
}

// consume takes one unit of demand and returns what is left. Unbounded demand is never
// decremented.
func (s *subscription[T]) consume() int64 {
	for {
		current := s.demand.Load()
		if current == math.MaxInt64 {
			return current
		}
		if s.demand.CompareAndSwap(current, current-1) {
			s.metrics.demand.Set(float64(current - 1))
			return current - 1
		}
	}
}

func (s *subscription[T]) finish(e envelope.Envelope[T]) {
	if !s.cancelled.Load() {
		switch e.Kind() {
		case envelope.KindError:
			s.downstream.OnError(e.Err())
		case envelope.KindCompletion:
			s.downstream.OnComplete()
		}
	}
	s.guard.dispose()
}

func (s *subscription[T]) terminate(span trace.Span, err error) {
	s.logger.WithError(err).Error("stage failed")
	s.metrics.errors.Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	s.cancelUpstream()
	if !s.cancelled.Load() {
		s.downstream.OnError(err)
	}
	s.guard.dispose()
}

// fail records a fatal error that is delivered once the queued signals are drained.
func (s *subscription[T]) fail(err error) {
	if s.failure.CompareAndSwap(nil, &err) {
		s.logger.WithError(err).Warn("stop accepting signals")
		s.cancelUpstream()
	}
}

// push spills an upstream signal and asks for a drain.
func (s *subscription[T]) push(e envelope.Envelope[T]) {
	if s.guard.disposed() || s.failure.Load() != nil {
		return
	}

	data, err := s.encoder.Encode(e)
	if err != nil {
		err = fmt.Errorf("encode %s: %w", e.Kind(), err)
	} else if err = s.queue.Offer(data); errors.Is(err, rolling.ErrClosed) {
		return
	} else if err != nil {
		err = fmt.Errorf("spill %s: %w", e.Kind(), err)
	}

	if err != nil {
		s.fail(err)
	} else {
		s.metrics.itemsOffered.WithLabelValues(e.Kind().String()).Inc()
	}
	s.requestDrain()
}

// setUpstream reports false if the upstream subscription must be cancelled right away.
func (s *subscription[T]) setUpstream(up Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upstream != nil || s.upstreamCancelled {
		return false
	}
	s.upstream = up
	return true
}

func (s *subscription[T]) cancelUpstream() {
	s.mu.Lock()
	up := s.upstream
	cancelled := s.upstreamCancelled
	s.upstreamCancelled = true
	s.mu.Unlock()

	if up != nil && !cancelled {
		up.Cancel()
	}
}

// inlet is the subscriber the stage registers at its source.
type inlet[T any] struct {
	s *subscription[T]
}

func (i *inlet[T]) OnSubscribe(up Subscription) {
	if !i.s.setUpstream(up) {
		up.Cancel()
		return
	}
	up.Request(math.MaxInt64)
}

func (i *inlet[T]) OnNext(value T) {
	i.s.push(envelope.Next(value))
}

func (i *inlet[T]) OnError(err error) {
	if err == nil {
		err = errors.New("upstream failed without an error")
	}
	i.s.push(envelope.Error[T](err))
}

func (i *inlet[T]) OnComplete() {
	i.s.push(envelope.Completion[T]())
}
