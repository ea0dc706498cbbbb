package envelope

import (
	"errors"
	"fmt"

	"github.com/teenjuna/spill/codec"
)

var (
	// ErrTruncated is returned when the encoded envelope ends before its payload does.
	ErrTruncated = errors.New("envelope is truncated")
	// ErrTrailingBytes is returned when bytes remain after a complete payload.
	ErrTrailingBytes = errors.New("envelope has trailing bytes")
	// ErrUnknownKind is returned for an unrecognized tag byte.
	ErrUnknownKind = errors.New("unknown envelope kind")
)

// Codec serializes envelopes, delegating Next values to a value codec.
//
// Codec is not thread-safe. Use [Codec.Derive] to get an instance for another goroutine.
type Codec[T any] struct {
	values codec.Codec[T]
	buf    []byte
}

// NewCodec panics if values is nil.
func NewCodec[T any](values codec.Codec[T]) *Codec[T] {
	if values == nil {
		panic("codec can't be nil")
	}
	return &Codec[T]{values: values}
}

// Encode returns the serialized envelope. The returned slice is owned by the caller.
func (c *Codec[T]) Encode(e Envelope[T]) ([]byte, error) {
	buf := append(c.buf[:0], byte(e.kind))

	switch e.kind {
	case KindCompletion:
	case KindError:
		buf = appendError(buf, e.err)
	case KindNext:
		var err error
		buf, err = c.values.Encode(buf, e.value)
		if err != nil {
			return nil, fmt.Errorf("encode value: %w", err)
		}
		if size := c.values.Size(); size != codec.Variable && len(buf)-1 != size {
			return nil, fmt.Errorf("encode value: expected %d bytes, got %d", size, len(buf)-1)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, e.kind)
	}
	c.buf = buf

	out := make([]byte, len(buf))
	copy(out, buf)

	return out, nil
}

// KindOf returns the kind of an encoded envelope without decoding its payload.
func KindOf(data []byte) (Kind, error) {
	if len(data) == 0 {
		return 0, ErrTruncated
	}
	switch kind := Kind(data[0]); kind {
	case KindCompletion, KindError, KindNext:
		return kind, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}

func (c *Codec[T]) Decode(data []byte) (Envelope[T], error) {
	if len(data) == 0 {
		return Envelope[T]{}, ErrTruncated
	}

	kind, payload := Kind(data[0]), data[1:]
	switch kind {
	case KindCompletion:
		if len(payload) != 0 {
			return Envelope[T]{}, ErrTrailingBytes
		}
		return Completion[T](), nil
	case KindError:
		cause, err := readError(payload)
		if err != nil {
			return Envelope[T]{}, fmt.Errorf("decode error: %w", err)
		}
		return Error[T](cause), nil
	case KindNext:
		if size := c.values.Size(); size != codec.Variable && len(payload) != size {
			return Envelope[T]{}, fmt.Errorf(
				"decode value: %w: expected %d bytes, got %d", ErrTruncated, size, len(payload),
			)
		}
		value, err := c.values.Decode(payload)
		if err != nil {
			return Envelope[T]{}, fmt.Errorf("decode value: %w", err)
		}
		return Next(value), nil
	default:
		return Envelope[T]{}, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}

// Derive returns a codec with its own state and a derived value codec.
func (c *Codec[T]) Derive() *Codec[T] {
	return NewCodec(c.values.Derive())
}
