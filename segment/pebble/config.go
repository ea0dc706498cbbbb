package pebble

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/teenjuna/spill/segment"
)

type Config struct {
	dir    string
	cache  segment.CacheConfig
	logger *logrus.Entry
}

type ConfigFunc = func(c *Config)

func (c *Config) Dir(dir string) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		panic("dir can't be blank")
	}
	c.dir = dir
}

func (c *Config) Cache(strategy segment.CacheStrategy, sizeItems int) {
	if sizeItems < 0 {
		panic("cache size can't be < 0")
	}
	c.cache = segment.CacheConfig{Strategy: strategy, SizeItems: sizeItems}
}

// Logger receives Pebble's own log output.
func (c *Config) Logger(logger *logrus.Entry) {
	if logger == nil {
		panic("logger can't be nil")
	}
	c.logger = logger
}
