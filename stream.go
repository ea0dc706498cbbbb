package spill

// Publisher is a source of signals that honours downstream demand.
//
// A publisher calls OnSubscribe once, then OnNext at most as many times as the subscriber has
// requested, then at most one of OnError or OnComplete. Signals to one subscriber are never
// delivered concurrently.
type Publisher[T any] interface {
	Subscribe(sub Subscriber[T])
}

// Subscriber receives the signals of a [Publisher].
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(value T)
	OnError(err error)
	OnComplete()
}

// Subscription is the link between a subscriber and its publisher.
type Subscription interface {
	// Request adds n to the demand. Negative n is a protocol violation. math.MaxInt64 means
	// unbounded demand.
	Request(n int64)
	// Cancel asks the publisher to stop signalling and release resources. It is idempotent.
	Cancel()
}

type noopSubscription struct{}

func (noopSubscription) Request(int64) {}
func (noopSubscription) Cancel()       {}
