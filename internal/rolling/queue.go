// Package rolling provides a FIFO queue spread over a sequence of segments.
//
// Items are appended to the newest segment until it holds the configured number of items, at
// which point a fresh segment is created and becomes the append target. Segments that were
// fully read and are no longer the append target are closed, which deletes their storage. This
// bounds disk usage by the number of unread items rather than by the lifetime of the stream.
//
// The queue is partially thread-safe: calls to Offer must be sequential, calls to Poll must be
// sequential, but Offer, Poll, Peek, IsEmpty and Close may run concurrently with each other.
package rolling

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/teenjuna/spill/retry"
	"github.com/teenjuna/spill/segment"
)

var (
	// ErrClosed is returned by Offer after the queue has been closed.
	ErrClosed = errors.New("queue is closed")
	// ErrStorageFull is returned by Offer when the item would exceed the size limit.
	ErrStorageFull = errors.New("storage size limit reached")
)

// Options are the optional settings of a [Queue].
type Options struct {
	// SizeLimit caps the bytes held by live segments. Zero means no limit.
	SizeLimit int64
	// Retry decides whether a failed segment creation is attempted again. Defaults to
	// [retry.Never].
	Retry retry.Policy
	// Logger defaults to the standard logrus logger.
	Logger *logrus.Entry
	// OnCreate is called after a segment was created, before it is appended.
	OnCreate func()
	// OnRetire is called after a drained segment was removed and closed.
	OnRetire func()
	// OnDiscard is called after a live segment was closed by [Queue.Close]. Every segment
	// reported by OnCreate is later reported by exactly one of OnRetire and OnDiscard.
	OnDiscard func()
}

type Queue struct {
	factory  segment.Factory
	maxItems int64
	opts     Options

	segments deque
	// Items offered into the tail segment.
	count  atomic.Int64
	size   atomic.Int64
	closed atomic.Bool

	ctx    context.Context
	cancel func()
}

// New panics if factory is nil or maxItemsPerSegment is < 2.
func New(factory segment.Factory, maxItemsPerSegment int, opts Options) *Queue {
	if factory == nil {
		panic("factory can't be nil")
	}
	if maxItemsPerSegment < 2 {
		panic("max items per segment can't be < 2")
	}
	if opts.SizeLimit < 0 {
		panic("size limit can't be < 0")
	}
	if opts.Retry == nil {
		opts.Retry = retry.Never()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		factory:  factory,
		maxItems: int64(maxItemsPerSegment),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Offer appends an item, rolling over to a new segment first when the tail is full.
func (q *Queue) Offer(item []byte) error {
	if q.closed.Load() {
		return ErrClosed
	}

	n := int64(len(item))
	if q.opts.SizeLimit > 0 && q.size.Load()+n > q.opts.SizeLimit {
		return ErrStorageFull
	}

	if c := q.count.Add(1); c == 1 || c > q.maxItems {
		if err := q.roll(); err != nil {
			// The next offer tries to create the segment again.
			q.count.Store(0)
			return err
		}
		q.count.Store(1)
	}

	tail := q.segments.peekLast()
	if err := tail.segment.Offer(item); errors.Is(err, segment.ErrClosed) {
		return ErrClosed
	} else if err != nil {
		return fmt.Errorf("offer to segment: %w", err)
	}

	tail.bytes.Add(n)
	q.size.Add(n)

	return nil
}

// Poll removes and returns the oldest item. Drained segments met on the way are retired.
func (q *Queue) Poll() ([]byte, bool, error) {
	for !q.closed.Load() {
		// The tail is read before polling the head. If they differ, the writer has already
		// moved on, so an empty head is final.
		head, tail := q.segments.ends()
		if head == nil {
			return nil, false, nil
		}

		item, ok, err := head.segment.Poll()
		if err != nil {
			return nil, false, fmt.Errorf("poll segment: %w", err)
		}
		if ok {
			return item, true, nil
		}
		if head == tail {
			return nil, false, nil
		}

		q.segments.popFirst()
		q.retire(head)
	}
	return nil, false, nil
}

// Peek returns the oldest item without removing it. It never retires segments.
func (q *Queue) Peek() ([]byte, bool, error) {
	if q.closed.Load() {
		return nil, false, nil
	}

	for _, e := range q.segments.snapshot() {
		item, ok, err := e.segment.Peek()
		if err != nil {
			return nil, false, fmt.Errorf("peek segment: %w", err)
		}
		if ok {
			return item, true, nil
		}
	}
	return nil, false, nil
}

// IsEmpty reports true when there are no segments, or the only segment is empty. A drained
// head in front of other segments makes it report false until Poll retires it.
func (q *Queue) IsEmpty() (bool, error) {
	if q.closed.Load() {
		return true, nil
	}

	head, tail := q.segments.ends()
	if head == nil {
		return true, nil
	}
	if head != tail {
		return false, nil
	}
	return head.segment.IsEmpty()
}

// Close closes every segment. Only the first call has an effect; segment close failures are
// joined into the returned error.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	q.cancel()

	var errs []error
	for _, e := range q.segments.snapshot() {
		if err := q.discard(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (q *Queue) Closed() bool {
	return q.closed.Load()
}

// Segments returns the number of live segments.
func (q *Queue) Segments() int {
	return q.segments.length()
}

// Size returns the bytes held by live segments.
func (q *Queue) Size() int64 {
	return q.size.Load()
}

func (q *Queue) roll() error {
	var (
		policy = q.opts.Retry.Derive()
		errs   []error
	)
	// Close cancels q.ctx, which ends a pending wait of the policy.
	for attempt := 1; policy.Attempt(q.ctx); attempt++ {
		s, err := q.factory.Create()
		if err != nil {
			q.opts.Logger.WithError(err).WithField("attempt", attempt).Warn("create segment")
			errs = append(errs, err)
			continue
		}

		e := &entry{segment: s}
		e.live.Store(true)
		if q.opts.OnCreate != nil {
			q.opts.OnCreate()
		}

		q.segments.pushBack(e)
		if q.closed.Load() {
			// Close may have taken its snapshot before the push.
			if err := q.discard(e); err != nil {
				q.opts.Logger.WithError(err).Warn("close segment")
			}
			return ErrClosed
		}

		q.opts.Logger.WithField("segments", q.segments.length()).Debug("segment created")
		return nil
	}

	if len(errs) == 0 {
		return ErrClosed
	}
	return fmt.Errorf("create segment: %w", errors.Join(errs...))
}

func (q *Queue) retire(e *entry) {
	if !e.release() {
		return
	}
	if err := e.segment.Close(); err != nil {
		q.opts.Logger.WithError(err).Warn("close drained segment")
	}
	q.size.Add(-e.bytes.Load())

	q.opts.Logger.WithField("segments", q.segments.length()).Debug("segment retired")
	if q.opts.OnRetire != nil {
		q.opts.OnRetire()
	}
}

func (q *Queue) discard(e *entry) error {
	if !e.release() {
		return nil
	}
	err := e.segment.Close()
	if q.opts.OnDiscard != nil {
		q.opts.OnDiscard()
	}
	return err
}
