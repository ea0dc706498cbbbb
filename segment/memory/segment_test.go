package memory_test

import (
	"testing"

	"github.com/teenjuna/spill/internal/testing/require"
	"github.com/teenjuna/spill/segment"
	"github.com/teenjuna/spill/segment/memory"
)

func TestSegment(t *testing.T) {
	s, err := memory.Factory().Create()
	require.Nil(t, err)

	require.Nil(t, s.Offer([]byte("a")))
	require.Nil(t, s.Offer([]byte("b")))

	item, ok, err := s.Peek()
	require.Nil(t, err)
	require.Equal(t, ok, true)
	require.Equal(t, string(item), "a")

	item, _, _ = s.Poll()
	require.Equal(t, string(item), "a")
	item, _, _ = s.Poll()
	require.Equal(t, string(item), "b")

	_, ok, _ = s.Poll()
	require.Equal(t, ok, false)

	require.Nil(t, s.Offer([]byte("c")))
	require.Nil(t, s.Close())
	require.ErrorIs(t, s.Offer([]byte("d")), segment.ErrClosed)

	_, ok, _ = s.Peek()
	require.Equal(t, ok, false)

	empty, _ := s.IsEmpty()
	require.Equal(t, empty, true)
}
