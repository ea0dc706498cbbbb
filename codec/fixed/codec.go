// Package fixed provides a codec for fixed-size values (numbers, bools and arrays or structs
// of them) encoded with encoding/binary in big-endian order.
package fixed

import (
	"encoding/binary"
	"fmt"

	"github.com/teenjuna/spill/codec"
)

type Codec[Item any] struct {
	size int
}

var _ codec.Codec[int64] = (*Codec[int64])(nil)

// New panics if Item doesn't have a fixed binary size.
func New[Item any]() *Codec[Item] {
	var item Item
	size := binary.Size(item)
	if size <= 0 {
		panic("item must have a fixed size")
	}
	return &Codec[Item]{size: size}
}

func (c *Codec[Item]) Encode(dst []byte, item Item) ([]byte, error) {
	return binary.Append(dst, binary.BigEndian, item)
}

func (c *Codec[Item]) Decode(data []byte) (Item, error) {
	var item Item
	if len(data) != c.size {
		return item, fmt.Errorf("expected %d bytes, got %d", c.size, len(data))
	}
	if _, err := binary.Decode(data, binary.BigEndian, &item); err != nil {
		return item, err
	}
	return item, nil
}

func (c *Codec[Item]) Size() int {
	return c.size
}

func (c *Codec[Item]) Derive() codec.Codec[Item] {
	return &Codec[Item]{size: c.size}
}
