// This package contains the [Segment] storage interface, the [Factory] capability that creates
// segments, and several backends inside subpackages.
package segment

import "errors"

var (
	// ErrClosed is returned by [Segment.Offer] after the segment has been closed.
	ErrClosed = errors.New("segment is closed")
)

// Segment is a FIFO of encoded items backed by one storage unit.
//
// Peek and Poll report ok=false both when the segment is empty and when it is closed. IsEmpty
// reports true once closed. Close releases and deletes the storage unit; it is idempotent.
//
// A segment supports one writer and one reader running concurrently with each other.
type Segment interface {
	Peek() (item []byte, ok bool, err error)
	Poll() (item []byte, ok bool, err error)
	Offer(item []byte) error
	IsEmpty() (bool, error)
	Close() error
}

// Factory creates ready-to-use segments, each backed by a fresh storage unit.
type Factory interface {
	Create() (Segment, error)
}

// FactoryFunc adapts a function to [Factory].
type FactoryFunc func() (Segment, error)

func (f FactoryFunc) Create() (Segment, error) {
	return f()
}
