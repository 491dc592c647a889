package cache

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RegisterMetrics exports the statistics of store as observable counters.
// name is used as attribute to distinguish multiple stores.
func RegisterMetrics(store Store, name string) error {
	meter := otel.Meter("github.com/mpapenbr/track-dominance/pkg/cache")
	hits, err := meter.Int64ObservableCounter("cache.hits",
		metric.WithDescription("number of cache hits"))
	if err != nil {
		return err
	}
	misses, err := meter.Int64ObservableCounter("cache.misses",
		metric.WithDescription("number of cache misses"))
	if err != nil {
		return err
	}
	writes, err := meter.Int64ObservableCounter("cache.writes",
		metric.WithDescription("number of cache writes"))
	if err != nil {
		return err
	}
	attrs := metric.WithAttributes(attribute.String("cache", name))
	_, err = meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			s := store.Stats()
			o.ObserveInt64(hits, s.Hits, attrs)
			o.ObserveInt64(misses, s.Misses, attrs)
			o.ObserveInt64(writes, s.Writes, attrs)
			return nil
		},
		hits, misses, writes)
	return err
}
