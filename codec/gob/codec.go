package gob

import (
	"bytes"
	"encoding/gob"

	"github.com/teenjuna/spill/codec"
)

// Codec writes every value as a self-contained gob stream, so each stored value carries its
// own type description. This makes single values independently decodable at the cost of size.
type Codec[Item any] struct {
	buf *bytes.Buffer
}

var _ codec.Codec[any] = (*Codec[any])(nil)

func New[Item any]() *Codec[Item] {
	return &Codec[Item]{
		buf: new(bytes.Buffer),
	}
}

func (c *Codec[Item]) Encode(dst []byte, item Item) ([]byte, error) {
	c.buf.Reset()
	enc := gob.NewEncoder(c.buf)

	if err := enc.Encode(&item); err != nil {
		return nil, err
	}

	return append(dst, c.buf.Bytes()...), nil
}

func (c *Codec[Item]) Decode(data []byte) (Item, error) {
	var item Item
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&item); err != nil {
		return item, err
	}
	return item, nil
}

func (c *Codec[Item]) Size() int {
	return codec.Variable
}

func (c *Codec[Item]) Derive() codec.Codec[Item] {
	return New[Item]()
}
