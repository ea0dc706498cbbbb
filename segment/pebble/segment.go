// Package pebble provides a segment stored in its own Pebble database directory.
package pebble

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/teenjuna/spill/segment"
)

const (
	defaultCacheBytes = 8 << 20
	hardCacheBytes    = 1 << 30
	// Estimated cache footprint of one item.
	itemCacheBytes = 512
)

// Segment is a FIFO of items keyed by a big-endian sequence number. Items are written with
// NoSync: the directory is working storage removed by [Segment.Close].
type Segment struct {
	cfg *Config

	// mu guards db against use after Close. Readers and the writer share it.
	mu     sync.RWMutex
	db     *pebble.DB
	closed bool

	head atomic.Uint64 // next sequence to read
	tail atomic.Uint64 // next sequence to write
}

var _ segment.Segment = (*Segment)(nil)

// New creates a new Segment with the provided configuration functions. A directory must be
// configured; it is created if missing.
func New(configFuncs ...ConfigFunc) (*Segment, error) {
	cfg := &Config{}
	for _, cf := range configFuncs {
		cf(cfg)
	}
	if cfg.dir == "" {
		return nil, errors.New("dir is not configured")
	}

	opts := &pebble.Options{}
	if cfg.logger != nil {
		opts.Logger = cfg.logger
	}

	var cacheBytes int64
	switch cfg.cache.Strategy {
	case segment.CacheNone:
		cacheBytes = 0
	case segment.CacheHard:
		cacheBytes = hardCacheBytes
	default:
		cacheBytes = defaultCacheBytes
		if cfg.cache.SizeItems > 0 {
			cacheBytes = int64(cfg.cache.SizeItems) * itemCacheBytes
		}
	}
	cache := pebble.NewCache(cacheBytes)
	defer cache.Unref()
	opts.Cache = cache

	db, err := pebble.Open(cfg.dir, opts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open pebble: %w", err), os.RemoveAll(cfg.dir))
	}

	return &Segment{cfg: cfg, db: db}, nil
}

// Factory returns a factory creating every segment in a fresh directory inside dir.
func Factory(dir string, configFuncs ...ConfigFunc) segment.Factory {
	next := segment.Paths(dir, "")
	return segment.FactoryFunc(func() (segment.Segment, error) {
		path := next()
		return New(append(configFuncs, func(c *Config) { c.Dir(path) })...)
	})
}

// Dir returns the database directory.
func (s *Segment) Dir() string {
	return s.cfg.dir
}

func (s *Segment) Peek() ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, nil
	}
	head := s.head.Load()
	if head >= s.tail.Load() {
		return nil, false, nil
	}
	return s.get(head)
}

// Poll must not be called concurrently with itself.
func (s *Segment) Poll() ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, nil
	}
	head := s.head.Load()
	if head >= s.tail.Load() {
		return nil, false, nil
	}

	item, ok, err := s.get(head)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := s.db.Delete(key(head), pebble.NoSync); err != nil {
		return nil, false, fmt.Errorf("delete: %w", err)
	}
	s.head.Store(head + 1)

	return item, true, nil
}

// Offer must not be called concurrently with itself.
func (s *Segment) Offer(item []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return segment.ErrClosed
	}
	tail := s.tail.Load()
	if err := s.db.Set(key(tail), item, pebble.NoSync); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	s.tail.Store(tail + 1)

	return nil
}

func (s *Segment) IsEmpty() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed || s.head.Load() >= s.tail.Load(), nil
}

// Close closes the database and removes its directory. Only the first call has an effect.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pebble: %w", err))
	}
	if err := os.RemoveAll(s.cfg.dir); err != nil {
		errs = append(errs, fmt.Errorf("remove %s: %w", s.cfg.dir, err))
	}
	return errors.Join(errs...)
}

func (s *Segment) get(seq uint64) ([]byte, bool, error) {
	value, closer, err := s.db.Get(key(seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("get: %w", err)
	}
	defer closer.Close()

	item := make([]byte, len(value))
	copy(item, value)

	return item, true, nil
}

func key(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, seq)
}
