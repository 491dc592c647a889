package cmdutil

import (
	"context"

	"github.com/mpapenbr/track-dominance/pkg/cache"
	"github.com/mpapenbr/track-dominance/pkg/config"
	"github.com/mpapenbr/track-dominance/pkg/openf1"
)

// Env holds the collaborators used by the data commands
type Env struct {
	Store     cache.Store
	Client    *openf1.Client
	Source    *openf1.Source
	telemetry *config.Telemetry
	cleanup   func()
}

// NewEnv sets up telemetry, the response cache and the OpenF1 source
func NewEnv(ctx context.Context) (*Env, error) {
	telemetry := SetupTelemetry(ctx)
	store, cleanup, err := NewStore()
	if err != nil {
		if telemetry != nil {
			telemetry.Shutdown()
		}
		return nil, err
	}
	client := NewClient(store)
	return &Env{
		Store:     store,
		Client:    client,
		Source:    openf1.NewSource(client),
		telemetry: telemetry,
		cleanup:   cleanup,
	}, nil
}

// Close reports the cache statistics and releases all resources
func (e *Env) Close() {
	LogCacheStats(e.Store)
	e.cleanup()
	if e.telemetry != nil {
		e.telemetry.Shutdown()
	}
}
