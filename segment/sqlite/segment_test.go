package sqlite_test

import (
	"errors"
	"os"
	"path"
	"strconv"
	"sync"
	"testing"

	"github.com/teenjuna/spill/internal/testing/require"
	"github.com/teenjuna/spill/segment"
	"github.com/teenjuna/spill/segment/sqlite"
)

func TestNew(t *testing.T) {
	file := tempFile(t)
	s, err := sqlite.New(func(c *sqlite.Config) { c.File(file) })
	require.Nil(t, err)
	deferClose(t, s)

	_, err = os.Stat(file)
	require.Nil(t, err)
	require.Equal(t, s.File(), file)
}

func TestNewWithoutFile(t *testing.T) {
	s, err := sqlite.New()
	require.NotNil(t, err)
	require.Nil(t, s)
}

func TestFIFO(t *testing.T) {
	run(t, func(t *testing.T, s *sqlite.Segment) {
		empty, err := s.IsEmpty()
		require.Nil(t, err)
		require.Equal(t, empty, true)

		for i := range 100 {
			require.Nil(t, s.Offer([]byte(strconv.Itoa(i))))
		}

		empty, err = s.IsEmpty()
		require.Nil(t, err)
		require.Equal(t, empty, false)

		for i := range 100 {
			peeked, ok, err := s.Peek()
			require.Nil(t, err)
			require.Equal(t, ok, true)

			polled, ok, err := s.Poll()
			require.Nil(t, err)
			require.Equal(t, ok, true)
			require.Equal(t, polled, peeked)
			require.Equal(t, string(polled), strconv.Itoa(i))
		}

		item, ok, err := s.Poll()
		require.Nil(t, err)
		require.Equal(t, ok, false)
		require.Nil(t, item)
	})
}

func TestEmptyItem(t *testing.T) {
	run(t, func(t *testing.T, s *sqlite.Segment) {
		require.Nil(t, s.Offer(nil))

		item, ok, err := s.Poll()
		require.Nil(t, err)
		require.Equal(t, ok, true)
		require.Equal(t, item, []byte{})
	})
}

func TestConcurrentOfferAndPoll(t *testing.T) {
	const items = 500
	run(t, func(t *testing.T, s *sqlite.Segment) {
		var wg sync.WaitGroup
		wg.Go(func() {
			for i := range items {
				require.Nil(t, s.Offer([]byte(strconv.Itoa(i))))
			}
		})

		var polled []string
		for len(polled) < items {
			item, ok, err := s.Poll()
			require.Nil(t, err)
			if ok {
				polled = append(polled, string(item))
			}
		}
		wg.Wait()

		for i, item := range polled {
			require.Equal(t, item, strconv.Itoa(i))
		}
	})
}

func TestClose(t *testing.T) {
	file := tempFile(t)
	s, err := sqlite.New(func(c *sqlite.Config) { c.File(file) })
	require.Nil(t, err)

	require.Nil(t, s.Offer([]byte{1}))
	require.Nil(t, s.Close())
	require.Nil(t, s.Close())

	_, err = os.Stat(file)
	require.Equal(t, errors.Is(err, os.ErrNotExist), true)

	require.ErrorIs(t, s.Offer([]byte{2}), segment.ErrClosed)

	item, ok, err := s.Poll()
	require.Nil(t, err)
	require.Equal(t, ok, false)
	require.Nil(t, item)

	_, ok, err = s.Peek()
	require.Nil(t, err)
	require.Equal(t, ok, false)

	empty, err := s.IsEmpty()
	require.Nil(t, err)
	require.Equal(t, empty, true)
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()
	factory := sqlite.Factory(dir, func(c *sqlite.Config) {
		c.Cache(segment.CacheLRU, 100)
	})

	s1, err := factory.Create()
	require.Nil(t, err)
	s2, err := factory.Create()
	require.Nil(t, err)
	require.NotEqual(t, s1.(*sqlite.Segment).File(), s2.(*sqlite.Segment).File())

	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	require.Equal(t, len(entries), 2)

	require.Nil(t, s1.Close())
	require.Nil(t, s2.Close())

	entries, err = os.ReadDir(dir)
	require.Nil(t, err)
	require.Equal(t, len(entries), 0)
}

func TestOptionValidation(t *testing.T) {
	cfg := &sqlite.Config{}

	require.PanicWithError(t, "file can't be blank", func() {
		cfg.File(" ")
	})

	require.PanicWithError(t, "file can't contain ?", func() {
		cfg.File("file?mode=memory")
	})

	require.PanicWithError(t, "file can't be in memory", func() {
		cfg.File(":memory:")
	})

	require.PanicWithError(t, "cache size can't be < 0", func() {
		cfg.Cache(segment.CacheLRU, -1)
	})
}

func run(t *testing.T, fn func(t *testing.T, s *sqlite.Segment)) {
	t.Helper()
	for _, strategy := range []segment.CacheStrategy{
		segment.CacheLRU,
		segment.CacheNone,
		segment.CacheHard,
	} {
		t.Run("Cache "+strategy.String(), func(t *testing.T) {
			t.Helper()
			file := tempFile(t)
			s, err := sqlite.New(func(c *sqlite.Config) {
				c.File(file)
				c.Cache(strategy, 0)
			})
			require.Nil(t, err)
			deferClose(t, s)
			fn(t, s)
		})
	}
}

func deferClose(t *testing.T, s *sqlite.Segment) {
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close segment: %v", err)
		}
	})
}

func tempFile(t *testing.T) string {
	return path.Join(t.TempDir(), "segment.db")
}
