package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cache"
	"github.com/mpapenbr/track-dominance/pkg/cache/factory"
	"github.com/mpapenbr/track-dominance/pkg/utils"
	"github.com/mpapenbr/track-dominance/version"
)

var StoreTypeFile factory.StoreType = "file"

const (
	formatFile = "format"
	entriesDir = "entries"
)

var ErrNoDir = errors.New("no cache directory configured")

type (
	Option     func(*fileConfig)
	fileConfig struct {
		dir string
	}
	fileStore struct {
		cache.Counter
		cfg    *cache.Config
		ownCfg *fileConfig
		log    *log.Logger
	}
)

// WithDir sets the storage directory. It is created on demand.
func WithDir(dir string) Option {
	return func(c *fileConfig) {
		c.dir = dir
	}
}

// DefaultDir returns $HOME/.cache/tdm (or the OS specific equivalent)
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tdm-cache")
	}
	return filepath.Join(base, "tdm")
}

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	ownCfg := &fileConfig{}
	for _, o := range specific {
		o(ownCfg)
	}
	if ownCfg.dir == "" {
		return nil, ErrNoDir
	}
	ret := &fileStore{
		cfg:    cache.NewConfig(common...),
		ownCfg: ownCfg,
		log:    log.Default().Named("cache.file"),
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

// init prepares the directory layout. Entries written by an incompatible
// cache format are removed.
func (s *fileStore) init() error {
	if err := os.MkdirAll(filepath.Join(s.ownCfg.dir, entriesDir), 0o755); err != nil {
		return err
	}
	formatPath := filepath.Join(s.ownCfg.dir, formatFile)
	data, err := os.ReadFile(formatPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	case !version.CompatibleCacheFormat(strings.TrimSpace(string(data))):
		s.log.Warn("cache format changed, discarding entries",
			log.String("dir", s.ownCfg.dir),
			log.String("found", strings.TrimSpace(string(data))),
			log.String("required", version.CacheFormat))
		if err := os.RemoveAll(filepath.Join(s.ownCfg.dir, entriesDir)); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(s.ownCfg.dir, entriesDir), 0o755); err != nil {
			return err
		}
	default:
		return nil
	}
	return os.WriteFile(formatPath, []byte(version.CacheFormat+"\n"), 0o600)
}

func (s *fileStore) path(key string) string {
	h := utils.HashKey(key)
	return filepath.Join(s.ownCfg.dir, entriesDir, h[:2], h)
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, error) {
	p := s.path(key)
	if s.cfg.TTL > 0 {
		fi, err := os.Stat(p)
		if err == nil && time.Since(fi.ModTime()) > s.cfg.TTL {
			s.Miss()
			return nil, cache.ErrCacheMiss
		}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		s.Miss()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cache.ErrCacheMiss
		}
		return nil, err
	}
	s.Hit()
	return data, nil
}

// Put writes to a temporary file first so concurrent readers never see partial data.
func (s *fileStore) Put(ctx context.Context, key string, data []byte) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err = os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	s.Write()
	s.log.Debug("stored entry", log.String("key", key), log.Int("size", len(data)))
	return nil
}

func init() {
	factory.Register(StoreTypeFile, New)
}
