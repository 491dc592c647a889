package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cache"
	"github.com/mpapenbr/track-dominance/pkg/cache/factory"
	"github.com/mpapenbr/track-dominance/pkg/utils"
)

const DefaultBucket = "tdm_openf1"

var (
	StoreTypeNats factory.StoreType = "nats"
	ErrNoConn                       = errors.New("no NATS connection configured")
)

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	ownCfg := &natsConfig{bucket: DefaultBucket}
	for _, o := range specific {
		o(ownCfg)
	}
	if ownCfg.nc == nil {
		return nil, ErrNoConn
	}
	ret := &natsStore{
		cfg:    cache.NewConfig(common...),
		ownCfg: ownCfg,
		log:    log.Default().Named("cache.nats"),
	}
	ret.log.Debug("Initializing NATS key value store", log.String("bucket", ownCfg.bucket))
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

type (
	Option     func(*natsConfig)
	natsConfig struct {
		nc     *nats.Conn
		bucket string
	}

	natsStore struct {
		cache.Counter
		cfg    *cache.Config
		ownCfg *natsConfig
		log    *log.Logger
		kv     jetstream.KeyValue
	}
)

func WithNATS(nc *nats.Conn) Option {
	return func(c *natsConfig) {
		c.nc = nc
	}
}

func WithBucket(name string) Option {
	return func(c *natsConfig) {
		c.bucket = name
	}
}

func (s *natsStore) init() error {
	js, err := jetstream.New(s.ownCfg.nc)
	if err != nil {
		return err
	}
	s.kv, err = js.CreateOrUpdateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket:      s.ownCfg.bucket,
		Description: "raw OpenF1 responses",
		TTL:         s.cfg.TTL,
	})
	return err
}

func (s *natsStore) Get(ctx context.Context, key string) ([]byte, error) {
	kve, err := s.kv.Get(ctx, utils.HashKey(key))
	if err != nil {
		s.Miss()
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, cache.ErrCacheMiss
		}
		return nil, err
	}
	s.Hit()
	return kve.Value(), nil
}

func (s *natsStore) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.kv.Put(ctx, utils.HashKey(key), data); err != nil {
		return err
	}
	s.Write()
	return nil
}

func init() {
	factory.Register(StoreTypeNats, New)
}
