package sqlite

import (
	"strings"

	"github.com/teenjuna/spill/segment"
)

type Config struct {
	file  string
	cache segment.CacheConfig
}

type ConfigFunc = func(c *Config)

func (c *Config) File(file string) {
	file = strings.TrimSpace(file)
	if file == "" {
		panic("file can't be blank")
	}
	if strings.Contains(file, "?") {
		panic("file can't contain ?")
	}
	if file == memory {
		panic("file can't be in memory")
	}
	c.file = file
}

func (c *Config) Cache(strategy segment.CacheStrategy, sizeItems int) {
	if sizeItems < 0 {
		panic("cache size can't be < 0")
	}
	c.cache = segment.CacheConfig{Strategy: strategy, SizeItems: sizeItems}
}
