package spill

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/teenjuna/spill/segment"
	"github.com/teenjuna/spill/segment/memory"
	"github.com/teenjuna/spill/segment/pebble"
	"github.com/teenjuna/spill/segment/sqlite"
)

// Backend is the storage engine segments are created with.
type Backend int

const (
	// BackendSQLite stores every segment in its own SQLite database file.
	BackendSQLite Backend = iota
	// BackendPebble stores every segment in its own Pebble directory.
	BackendPebble
	// BackendMemory keeps segments in memory. Nothing is spilled to disk.
	BackendMemory
)

func (b Backend) String() string {
	switch b {
	case BackendSQLite:
		return "sqlite"
	case BackendPebble:
		return "pebble"
	case BackendMemory:
		return "memory"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

func (b Backend) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, fmt.Errorf("unknown backend %d", int(b))
	}
	return []byte(b.String()), nil
}

func (b *Backend) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "sqlite", "":
		*b = BackendSQLite
	case "pebble":
		*b = BackendPebble
	case "memory":
		*b = BackendMemory
	default:
		return fmt.Errorf("unknown backend %q", text)
	}
	return nil
}

func (b Backend) valid() bool {
	return b >= BackendSQLite && b <= BackendMemory
}

// StorageConfig groups the settings of segment storage. It can be loaded from YAML with
// [LoadStorageConfig] and applied with [WithStorage].
type StorageConfig struct {
	Dir                   string                `yaml:"dir"`
	Backend               Backend               `yaml:"backend"`
	MaxItemsPerSegment    int                   `yaml:"max_items_per_segment"`
	CacheStrategy         segment.CacheStrategy `yaml:"cache_strategy"`
	CacheSizeItems        int                   `yaml:"cache_size_items"`
	StorageSizeLimitBytes int64                 `yaml:"storage_size_limit_bytes"`
}

// DefaultStorageConfig returns SQLite segments of 10000 items in the system temporary
// directory, with an LRU cache and no size limit.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Dir:                os.TempDir(),
		Backend:            BackendSQLite,
		MaxItemsPerSegment: 10000,
		CacheStrategy:      segment.CacheLRU,
	}
}

// LoadStorageConfig reads YAML from r on top of [DefaultStorageConfig]. Unknown keys are
// rejected.
func LoadStorageConfig(r io.Reader) (StorageConfig, error) {
	cfg := DefaultStorageConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return StorageConfig{}, fmt.Errorf("decode yaml: %w", err)
	}

	cfg.Dir = strings.TrimSpace(cfg.Dir)
	if err := cfg.validate(); err != nil {
		return StorageConfig{}, err
	}

	return cfg, nil
}

func (c StorageConfig) validate() error {
	switch {
	case strings.TrimSpace(c.Dir) == "" && c.Backend != BackendMemory:
		return errors.New("dir can't be blank")
	case !c.Backend.valid():
		return errors.New("unknown backend")
	case c.MaxItemsPerSegment < 2:
		return errors.New("max items per segment can't be < 2")
	case c.CacheStrategy < segment.CacheLRU || c.CacheStrategy > segment.CacheHard:
		return errors.New("unknown cache strategy")
	case c.CacheSizeItems < 0:
		return errors.New("cache size can't be < 0")
	case c.StorageSizeLimitBytes < 0:
		return errors.New("storage size limit can't be < 0")
	}
	return nil
}

func (c StorageConfig) factory(logger *logrus.Entry) (segment.Factory, error) {
	if c.Backend == BackendMemory {
		return memory.Factory(), nil
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}

	switch c.Backend {
	case BackendPebble:
		return pebble.Factory(c.Dir, func(pc *pebble.Config) {
			pc.Cache(c.CacheStrategy, c.CacheSizeItems)
			pc.Logger(logger.WithField("backend", "pebble"))
		}), nil
	default:
		return sqlite.Factory(c.Dir, func(sc *sqlite.Config) {
			sc.Cache(c.CacheStrategy, c.CacheSizeItems)
		}), nil
	}
}
