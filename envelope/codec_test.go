package envelope_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/teenjuna/spill/codec/fixed"
	"github.com/teenjuna/spill/codec/json"
	"github.com/teenjuna/spill/envelope"
	"github.com/teenjuna/spill/internal/testing/require"
)

type Item struct {
	ID string
	N  int
}

func TestRoundTrip(t *testing.T) {
	c := envelope.NewCodec(json.New[Item]())

	inputs := []envelope.Envelope[Item]{
		envelope.Next(Item{ID: "a", N: 1}),
		envelope.Next(Item{}),
		envelope.Completion[Item](),
	}

	for _, in := range inputs {
		data, err := c.Encode(in)
		require.Nil(t, err)
		require.Equal(t, data[0], byte(in.Kind()))

		out, err := c.Derive().Decode(data)
		require.Nil(t, err)
		require.Equal(t, out, in)
	}
}

func TestTagBytes(t *testing.T) {
	c := envelope.NewCodec(fixed.New[int32]())

	data, err := c.Encode(envelope.Completion[int32]())
	require.Nil(t, err)
	require.Equal(t, data, []byte{0})

	data, err = c.Encode(envelope.Next[int32](7))
	require.Nil(t, err)
	require.Equal(t, data, []byte{2, 0, 0, 0, 7})

	data, err = c.Encode(envelope.Error[int32](io.EOF))
	require.Nil(t, err)
	require.Equal(t, data[0], byte(1))
}

func TestErrorChain(t *testing.T) {
	c := envelope.NewCodec(json.New[Item]())

	cause := fmt.Errorf("read segment: %w", io.ErrUnexpectedEOF)
	data, err := c.Encode(envelope.Error[Item](cause))
	require.Nil(t, err)

	out, err := c.Decode(data)
	require.Nil(t, err)
	require.Equal(t, out.Kind(), envelope.KindError)
	require.Equal(t, out.Err().Error(), cause.Error())

	var remote *envelope.RemoteError
	require.True(t, errors.As(out.Err(), &remote))

	inner := errors.Unwrap(out.Err())
	require.NotNil(t, inner)
	require.Equal(t, inner.Error(), io.ErrUnexpectedEOF.Error())
	require.Nil(t, errors.Unwrap(inner))
}

func TestEncodedBufferIsNotShared(t *testing.T) {
	c := envelope.NewCodec(json.New[Item]())

	first, err := c.Encode(envelope.Next(Item{ID: "first"}))
	require.Nil(t, err)
	snapshot := string(first)

	_, err = c.Encode(envelope.Next(Item{ID: "second"}))
	require.Nil(t, err)
	require.Equal(t, string(first), snapshot)
}

func TestDecodeFailures(t *testing.T) {
	c := envelope.NewCodec(fixed.New[int32]())

	_, err := c.Decode(nil)
	require.ErrorIs(t, err, envelope.ErrTruncated)

	_, err = c.Decode([]byte{2, 0, 0})
	require.ErrorIs(t, err, envelope.ErrTruncated)

	_, err = c.Decode([]byte{0, 1})
	require.ErrorIs(t, err, envelope.ErrTrailingBytes)

	_, err = c.Decode([]byte{9})
	require.ErrorIs(t, err, envelope.ErrUnknownKind)

	data, err := c.Encode(envelope.Error[int32](errors.New("boom")))
	require.Nil(t, err)
	_, err = c.Decode(data[:len(data)-2])
	require.NotNil(t, err)

	// An error chain header claiming more messages than there are bytes.
	_, err = c.Decode([]byte{1, 0xdd, 0xff, 0xff, 0xff, 0xff})
	require.ErrorIs(t, err, envelope.ErrTruncated)

	j := envelope.NewCodec(json.New[Item]())
	_, err = j.Decode([]byte{2, '{'})
	require.NotNil(t, err)
}

func TestConstructors(t *testing.T) {
	require.PanicWithError(t, "error can't be nil", func() {
		_ = envelope.Error[int](nil)
	})
	require.PanicWithError(t, "codec can't be nil", func() {
		_ = envelope.NewCodec[int](nil)
	})

	require.Equal(t, envelope.Next(1).Terminal(), false)
	require.Equal(t, envelope.Completion[int]().Terminal(), true)
	require.Equal(t, envelope.Error[int](io.EOF).Terminal(), true)
	require.Equal(t, envelope.Next(1).String(), "next(1)")
}

func TestKindOf(t *testing.T) {
	c := envelope.NewCodec(json.New[int]())

	for _, e := range []envelope.Envelope[int]{
		envelope.Next(7),
		envelope.Error[int](io.EOF),
		envelope.Completion[int](),
	} {
		data, err := c.Encode(e)
		require.Nil(t, err)
		kind, err := envelope.KindOf(data)
		require.Nil(t, err)
		require.Equal(t, kind, e.Kind())
	}

	_, err := envelope.KindOf(nil)
	require.ErrorIs(t, err, envelope.ErrTruncated)
	_, err = envelope.KindOf([]byte{9})
	require.ErrorIs(t, err, envelope.ErrUnknownKind)
}
