// Package s2 provides a codec that compresses the output of another codec with S2.
package s2

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/teenjuna/spill/codec"
)

// Flag byte preceding the payload.
const (
	raw        byte = 0
	compressed byte = 1
)

var ErrUnknownFlag = errors.New("unknown compression flag")

// Codec compresses values whose encoded size reaches the threshold. Smaller values are stored
// as is, behind a one byte flag.
type Codec[Item any] struct {
	values    codec.Codec[Item]
	threshold int
	buf       []byte
}

var _ codec.Codec[any] = (*Codec[any])(nil)

// New panics if values is nil or threshold is < 0.
func New[Item any](values codec.Codec[Item], threshold int) *Codec[Item] {
	if values == nil {
		panic("codec can't be nil")
	}
	if threshold < 0 {
		panic("threshold can't be < 0")
	}
	return &Codec[Item]{
		values:    values,
		threshold: threshold,
	}
}

func (c *Codec[Item]) Encode(dst []byte, item Item) ([]byte, error) {
	buf, err := c.values.Encode(c.buf[:0], item)
	if err != nil {
		return nil, err
	}
	c.buf = buf

	if len(buf) < c.threshold {
		dst = append(dst, raw)
		return append(dst, buf...), nil
	}

	dst = append(dst, compressed)
	return append(dst, s2.Encode(nil, buf)...), nil
}

func (c *Codec[Item]) Decode(data []byte) (Item, error) {
	var item Item
	if len(data) == 0 {
		return item, errors.New("missing compression flag")
	}

	switch flag, payload := data[0], data[1:]; flag {
	case raw:
		return c.values.Decode(payload)
	case compressed:
		decoded, err := s2.Decode(nil, payload)
		if err != nil {
			return item, fmt.Errorf("decompress: %w", err)
		}
		return c.values.Decode(decoded)
	default:
		return item, fmt.Errorf("%w: %d", ErrUnknownFlag, flag)
	}
}

// Size is always [codec.Variable].
func (c *Codec[Item]) Size() int {
	return codec.Variable
}

func (c *Codec[Item]) Derive() codec.Codec[Item] {
	return New(c.values.Derive(), c.threshold)
}
