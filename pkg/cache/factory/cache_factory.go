package factory

import (
	"errors"

	"github.com/mpapenbr/track-dominance/pkg/cache"
)

type StoreType string

var (
	ErrTypeNotSupported = errors.New("cache store type not supported")
	ErrWrongCreator     = errors.New("cache store wrong creator")
)

type Creator[ImplOpt any] func([]cache.Option, []ImplOpt) (cache.Store, error)

var registry = map[StoreType]any{}

// Register a new implementation generically
//
//nolint:whitespace //editor/linter issue
func Register[ImplOpt any](
	key StoreType, creator Creator[ImplOpt],
) {
	registry[key] = creator
}

// Create a new instance
//
//nolint:whitespace //editor/linter issue
func New[ImplOpt any](
	key StoreType,
	common []cache.Option,
	specific []ImplOpt,
) (cache.Store, error) {
	entry, ok := registry[key]
	if !ok {
		return nil, ErrTypeNotSupported
	}
	creator, ok := entry.(Creator[ImplOpt])
	if !ok {
		return nil, ErrWrongCreator
	}
	return creator(common, specific)
}

// Supported returns true if an implementation is registered for key
func Supported(key StoreType) bool {
	_, ok := registry[key]
	return ok
}
