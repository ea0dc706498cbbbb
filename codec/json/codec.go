package json

import (
	"bytes"
	"encoding/json"

	"github.com/teenjuna/spill/codec"
)

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
	enc := json.NewEncoder(c.buf)

	if err := enc.Encode(item); err != nil {
		return nil, err
	}

	// Encoder terminates every value with a newline.
	res := bytes.TrimSuffix(c.buf.Bytes(), []byte{'\n'})

	return append(dst, res...), nil
}

func (c *Codec[Item]) Decode(data []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
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
