// Package cmdutil contains the setup shared by the CLI commands.
package cmdutil

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pgx-contrib/pgxtrace"
	"github.com/jackc/pgx/v5/pgxpool"
	natsgo "github.com/nats-io/nats.go"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cache"
	"github.com/mpapenbr/track-dominance/pkg/cache/factory"
	"github.com/mpapenbr/track-dominance/pkg/cache/impl/file"
	"github.com/mpapenbr/track-dominance/pkg/cache/impl/memory"
	"github.com/mpapenbr/track-dominance/pkg/cache/impl/nats"
	"github.com/mpapenbr/track-dominance/pkg/config"
	"github.com/mpapenbr/track-dominance/pkg/db/postgres"
	"github.com/mpapenbr/track-dominance/pkg/openf1"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the logger according to the log flags and installs it as
// default logger. A log config file takes precedence over --log-level.
func SetupLogger() *log.Logger {
	level := ParseLogLevel(config.LogLevel, log.InfoLevel)
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if config.LogConfig != "" {
		cfg, err := log.LoadConfig(config.LogConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not load log config %s: %v\n", config.LogConfig, err)
		} else {
			level = cfg.MinLevel()
			opts = append(opts, cfg.Option())
		}
	}
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr, level, opts...)
	default:
		logger = log.DevLogger(os.Stderr, level, opts...)
	}
	log.ResetDefault(logger)
	return logger
}

// SetupTelemetry starts trace, metric and runtime metric export if enabled.
// The returned value is nil if telemetry is disabled or could not be set up.
func SetupTelemetry(ctx context.Context) *config.Telemetry {
	if !config.EnableTelemetry {
		return nil
	}
	log.Info("Enabling telemetry", log.String("endpoint", config.TelemetryEndpoint))
	telemetry, err := config.SetupTelemetry(ctx)
	if err != nil {
		log.Warn("Could not setup telemetry", log.ErrorField(err))
		return nil
	}
	err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
	if err != nil {
		log.Warn("Could not start runtime metrics", log.ErrorField(err))
	}
	return telemetry
}

// NewStore creates the response cache configured by --cache-type.
// The returned function releases resources held by the store.
func NewStore() (cache.Store, func(), error) {
	var common []cache.Option
	if config.CacheTTL != "" {
		ttl, err := time.ParseDuration(config.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("cache-ttl: %w", err)
		}
		common = append(common, cache.WithTTL(ttl))
	}
	var store cache.Store
	var err error
	cleanup := func() {}

	switch factory.StoreType(config.CacheType) {
	case file.StoreTypeFile:
		dir := config.CacheDir
		if dir == "" {
			dir = file.DefaultDir()
		}
		store, err = factory.New(file.StoreTypeFile, common, []file.Option{file.WithDir(dir)})
	case memory.StoreTypeMemory:
		store, err = factory.New(memory.StoreTypeMemory, common, []memory.Option{})
	case nats.StoreTypeNats:
		var nc *natsgo.Conn
		nc, err = natsgo.Connect(config.NatsURL, natsgo.Name("tdm"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect nats %s: %w", config.NatsURL, err)
		}
		cleanup = nc.Close
		store, err = factory.New(nats.StoreTypeNats, common, []nats.Option{nats.WithNATS(nc)})
	default:
		return nil, nil, fmt.Errorf("%q: %w", config.CacheType, factory.ErrTypeNotSupported)
	}
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if config.EnableTelemetry {
		if err := cache.RegisterMetrics(store, config.CacheType); err != nil {
			log.Warn("Could not register cache metrics", log.ErrorField(err))
		}
	}
	return store, cleanup, nil
}

// NewClient creates the OpenF1 client backed by store
func NewClient(store cache.Store) *openf1.Client {
	timeout, err := time.ParseDuration(config.HTTPTimeout)
	if err != nil {
		log.Warn("Invalid http timeout. Setting default 30s", log.ErrorField(err))
		timeout = 30 * time.Second
	}
	hc := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return openf1.New(
		openf1.WithBaseURL(config.OpenF1URL),
		openf1.WithHTTPClient(hc),
		openf1.WithStore(store),
		openf1.WithLogger(log.Default().Named("openf1")),
	)
}

// LogCacheStats reports the hit/miss statistics of store
func LogCacheStats(store cache.Store) {
	s := store.Stats()
	log.Info("Cache statistics",
		log.String("type", config.CacheType),
		log.Int64("hits", s.Hits),
		log.Int64("misses", s.Misses),
		log.Int64("writes", s.Writes),
		log.Float64("hitRatio", s.HitRatio()))
}

// InitDB creates the connection pool for --db. SQL statements are logged with
// --sql-log-level, with telemetry enabled they are traced as well.
func InitDB() *pgxpool.Pool {
	pgTracer := pgxtrace.CompositeQueryTracer{
		postgres.NewMyTracer(log.Default(), ParseLogLevel(config.SQLLogLevel, log.DebugLevel)),
	}
	if config.EnableTelemetry {
		pgTracer = append(pgTracer, postgres.NewOtlpTracer())
	}
	return postgres.InitWithURL(config.DB, postgres.WithTracer(pgTracer))
}
