package rolling

import (
	"sync"
	"sync/atomic"

	"github.com/teenjuna/spill/segment"
)

type entry struct {
	segment segment.Segment
	// Bytes offered into the segment. Written by the writer only.
	bytes atomic.Int64
	// Set until the segment is closed. Whoever clears it owns the close.
	live atomic.Bool
}

func (e *entry) release() bool {
	return e.live.CompareAndSwap(true, false)
}

// deque is the ordered list of segments. It is internally synchronised so that the writer,
// the reader and the closer can use it concurrently.
type deque struct {
	mu    sync.Mutex
	items []*entry
}

func (d *deque) pushBack(e *entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, e)
}

func (d *deque) peekLast() *entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil
	}
	return d.items[len(d.items)-1]
}

// ends returns the head and the tail under one lock.
func (d *deque) ends() (first, last *entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil, nil
	}
	return d.items[0], d.items[len(d.items)-1]
}

func (d *deque) popFirst() *entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil
	}
	first := d.items[0]
	d.items[0] = nil
	d.items = d.items[1:]
	return first
}

func (d *deque) snapshot() []*entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*entry(nil), d.items...)
}

func (d *deque) length() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}
