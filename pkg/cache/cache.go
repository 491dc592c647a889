// Package cache defines the store used for raw upstream responses.
package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

type (
	Store interface {
		// Get returns ErrCacheMiss if no (valid) entry exists for key
		Get(ctx context.Context, key string) ([]byte, error)
		Put(ctx context.Context, key string, data []byte) error
		Stats() Stats
	}
	Stats struct {
		Hits   int64 `json:"hits"`
		Misses int64 `json:"misses"`
		Writes int64 `json:"writes"`
	}
	Option func(*Config)
	// Config holds the settings common to all store implementations
	Config struct {
		TTL time.Duration // 0 means entries never expire
	}
)

// WithTTL sets the duration after which entries are treated as missing.
func WithTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.TTL = ttl
	}
}

func NewConfig(opts ...Option) *Config {
	ret := &Config{}
	for _, o := range opts {
		o(ret)
	}
	return ret
}

// Counter is embedded by store implementations to track their statistics.
type Counter struct {
	hits   atomic.Int64
	misses atomic.Int64
	writes atomic.Int64
}

func (c *Counter) Hit()   { c.hits.Add(1) }
func (c *Counter) Miss()  { c.misses.Add(1) }
func (c *Counter) Write() { c.writes.Add(1) }

func (c *Counter) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Writes: c.writes.Load(),
	}
}

// HitRatio returns hits/(hits+misses) or 0 if nothing was requested yet
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
