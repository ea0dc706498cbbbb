// Package memory provides a slice-backed segment. It keeps everything in memory and is meant
// for tests and for pipelines that only need the stage's demand handling.
package memory

import (
	"sync"

	"github.com/teenjuna/spill/segment"
)

type Segment struct {
	mu     sync.Mutex
	items  [][]byte
	closed bool
}

var _ segment.Segment = (*Segment)(nil)

func New() *Segment {
	return &Segment{}
}

// Factory returns a factory of memory segments.
func Factory() segment.Factory {
	return segment.FactoryFunc(func() (segment.Segment, error) {
		return New(), nil
	})
}

func (s *Segment) Peek() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.items) == 0 {
		return nil, false, nil
	}
	return s.items[0], true, nil
}

func (s *Segment) Poll() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.items) == 0 {
		return nil, false, nil
	}
	item := s.items[0]
	s.items[0] = nil
	s.items = s.items[1:]
	return item, true, nil
}

func (s *Segment) Offer(item []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return segment.ErrClosed
	}
	s.items = append(s.items, item)
	return nil
}

func (s *Segment) IsEmpty() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed || len(s.items) == 0, nil
}

func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.items = nil
	return nil
}
