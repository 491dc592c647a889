package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/track-dominance/pkg/cache"
	"github.com/mpapenbr/track-dominance/pkg/cache/factory"
	"github.com/mpapenbr/track-dominance/version"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	s, err := factory.New(StoreTypeFile, nil, []Option{WithDir(dir)})
	require.NoError(t, err)

	_, err = s.Get(ctx, "https://api.openf1.org/v1/laps?session_key=1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, s.Put(ctx, "https://api.openf1.org/v1/laps?session_key=1", []byte("[]")))
	got, err := s.Get(ctx, "https://api.openf1.org/v1/laps?session_key=1")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), got)

	assert.Equal(t, cache.Stats{Hits: 1, Misses: 1, Writes: 1}, s.Stats())

	format, err := os.ReadFile(filepath.Join(dir, formatFile))
	require.NoError(t, err)
	assert.Equal(t, version.CacheFormat+"\n", string(format))
}

func TestFileStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(nil, []Option{WithDir(dir)})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("v")))

	s2, err := New(nil, []Option{WithDir(dir)})
	require.NoError(t, err)
	got, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestFileStore_IncompatibleFormat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(nil, []Option{WithDir(dir)})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, formatFile), []byte("v0.1.0"), 0o600))

	s2, err := New(nil, []Option{WithDir(dir)})
	require.NoError(t, err)
	_, err = s2.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestFileStore_NoDir(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNoDir)
}
