// Package envelope provides the typed container of stream signals and its binary codec.
//
// A signal is one of Next(value), Error(cause) or Completion. On the wire it is a single tag
// byte followed by the payload of the variant:
//
//	0                  Completion
//	1 <msgp []string>  Error, messages of the unwrap chain from outer to inner
//	2 <value>          Next, value bytes produced by a [codec.Codec]
package envelope

import "fmt"

// Kind is the tag of an [Envelope].
type Kind byte

const (
	KindCompletion Kind = 0
	KindError      Kind = 1
	KindNext       Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindCompletion:
		return "completion"
	case KindError:
		return "error"
	case KindNext:
		return "next"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// Envelope is an immutable stream signal. The zero value is a Completion.
type Envelope[T any] struct {
	kind  Kind
	value T
	err   error
}

func Next[T any](value T) Envelope[T] {
	return Envelope[T]{kind: KindNext, value: value}
}

// Error panics if err is nil.
func Error[T any](err error) Envelope[T] {
	if err == nil {
		panic("error can't be nil")
	}
	return Envelope[T]{kind: KindError, err: err}
}

func Completion[T any]() Envelope[T] {
	return Envelope[T]{kind: KindCompletion}
}

func (e Envelope[T]) Kind() Kind {
	return e.kind
}

// Value returns the carried value. It is the zero value unless the kind is [KindNext].
func (e Envelope[T]) Value() T {
	return e.value
}

// Err returns the carried cause. It is nil unless the kind is [KindError].
func (e Envelope[T]) Err() error {
	return e.err
}

// Terminal reports whether the envelope ends the stream.
func (e Envelope[T]) Terminal() bool {
	return e.kind != KindNext
}

func (e Envelope[T]) String() string {
	switch e.kind {
	case KindNext:
		return fmt.Sprintf("next(%v)", e.value)
	case KindError:
		return fmt.Sprintf("error(%v)", e.err)
	default:
		return e.kind.String()
	}
}
