package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cache"
	"github.com/mpapenbr/track-dominance/pkg/cache/factory"
)

var StoreTypeMemory factory.StoreType = "memory"

type (
	Option func(*memoryConfig)
	// no memory specific settings yet
	memoryConfig struct{}

	entry struct {
		data    []byte
		created time.Time
	}
	memoryStore struct {
		cache.Counter
		cfg   *cache.Config
		log   *log.Logger
		mu    sync.RWMutex
		items map[string]entry
		now   func() time.Time
	}
)

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	ownCfg := &memoryConfig{}
	for _, o := range specific {
		o(ownCfg)
	}
	return &memoryStore{
		cfg:   cache.NewConfig(common...),
		log:   log.Default().Named("cache.memory"),
		items: make(map[string]entry),
		now:   time.Now,
	}, nil
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		s.Miss()
		return nil, cache.ErrCacheMiss
	}
	s.Hit()
	return slices.Clone(e.data), nil
}

func (s *memoryStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = entry{data: slices.Clone(data), created: s.now()}
	s.Write()
	s.log.Debug("stored entry", log.String("key", key), log.Int("size", len(data)))
	return nil
}

func (s *memoryStore) expired(e entry) bool {
	return s.cfg.TTL > 0 && s.now().Sub(e.created) > s.cfg.TTL
}

func init() {
	factory.Register(StoreTypeMemory, New)
}
