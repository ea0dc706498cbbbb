package msgp

import (
	"fmt"

	"github.com/teenjuna/spill/codec"
	"github.com/tinylib/msgp/msgp"
)

type Codec[Item any, ItemPtr msgpable[Item]] struct{}

var _ codec.Codec[msgp.Raw] = (*Codec[msgp.Raw, *msgp.Raw])(nil)

func New[Item any, ItemPtr msgpable[Item]]() *Codec[Item, ItemPtr] {
	return &Codec[Item, ItemPtr]{}
}

func (c *Codec[Item, ItemPtr]) Encode(dst []byte, item Item) ([]byte, error) {
	return ItemPtr(&item).MarshalMsg(dst)
}

func (c *Codec[Item, ItemPtr]) Decode(data []byte) (Item, error) {
	var item Item
	rest, err := ItemPtr(&item).UnmarshalMsg(data)
	if err != nil {
		return item, err
	}
	if len(rest) != 0 {
		return item, fmt.Errorf("%d trailing bytes after value", len(rest))
	}
	return item, nil
}

func (c *Codec[Item, ItemPtr]) Size() int {
	return codec.Variable
}

func (c *Codec[Item, ItemPtr]) Derive() codec.Codec[Item] {
	return New[Item, ItemPtr]()
}

type msgpable[Item any] interface {
	*Item
	msgp.Marshaler
	msgp.Unmarshaler
}
