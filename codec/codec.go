// This package contains the value [Codec] interface and several implementations inside
// subpackages.
package codec

// Variable is returned by [Codec.Size] when encoded values don't have a fixed length.
const Variable = -1

// Codec encodes and decodes single stream values for storage.
//
// Implementations are not considered thread-safe. The stage derives one instance for the
// upstream side and one for the drain side.
type Codec[Item any] interface {
	// Encode appends the serialized item to dst and returns the extended slice.
	Encode(dst []byte, item Item) ([]byte, error)
	// Decode deserializes one item. The length of data is the size hint of the stored value.
	Decode(data []byte) (Item, error)
	// Size returns the fixed encoded size of every value, or [Variable].
	Size() int
	// Derive returns a new Codec instance with the same settings.
	//
	// The returned codec maintains its own internal state independent of the original.
	Derive() Codec[Item]
}
