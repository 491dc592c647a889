package factory

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mpapenbr/track-dominance/pkg/cache"
)

type dummyOpt func()

type dummyStore struct{ cache.Counter }

func (d *dummyStore) Get(context.Context, string) ([]byte, error) { return nil, cache.ErrCacheMiss }
func (d *dummyStore) Put(context.Context, string, []byte) error    { return nil }

func TestFactory(t *testing.T) {
	Register("dummy", func(common []cache.Option, specific []dummyOpt) (cache.Store, error) {
		return &dummyStore{}, nil
	})
	assert.Assert(t, Supported("dummy"))
	assert.Assert(t, !Supported("unknown"))

	s, err := New[dummyOpt]("dummy", nil, nil)
	assert.NilError(t, err)
	assert.Assert(t, s != nil)

	_, err = New[dummyOpt]("unknown", nil, nil)
	assert.ErrorIs(t, err, ErrTypeNotSupported)

	_, err = New[string]("dummy", nil, nil)
	assert.ErrorIs(t, err, ErrWrongCreator)
}
