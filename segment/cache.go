package segment

import "fmt"

// CacheStrategy is the eviction policy of the in-memory cache a backend keeps in front of its
// storage.
type CacheStrategy int

const (
	// CacheLRU keeps a bounded cache evicting least recently used entries.
	CacheLRU CacheStrategy = iota
	// CacheNone disables caching where the backend allows it.
	CacheNone
	// CacheHard keeps everything that was read or written, ignoring CacheSizeItems.
	CacheHard
)

func (s CacheStrategy) String() string {
	switch s {
	case CacheLRU:
		return "lru"
	case CacheNone:
		return "none"
	case CacheHard:
		return "hard"
	default:
		return fmt.Sprintf("cache(%d)", int(s))
	}
}

func (s CacheStrategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CacheStrategy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "lru", "":
		*s = CacheLRU
	case "none":
		*s = CacheNone
	case "hard":
		*s = CacheHard
	default:
		return fmt.Errorf("unknown cache strategy %q", text)
	}
	return nil
}

// CacheConfig is shared by the disk backends.
type CacheConfig struct {
	Strategy CacheStrategy
	// SizeItems caps the cache for [CacheLRU]. Zero means the backend default.
	SizeItems int
}
