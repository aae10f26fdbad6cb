package perms

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("perms")

var (
	cacheHits, _ = meter.Int64Counter(
		"perms.cache.hits",
		metric.WithDescription("The number of permission checks answered from the cache"),
		metric.WithUnit("1"),
	)
	cacheMisses, _ = meter.Int64Counter(
		"perms.cache.misses",
		metric.WithDescription("The number of permission checks that had to be resolved"),
		metric.WithUnit("1"),
	)
)

func recordLookup(hit bool) {
	if hit {
		cacheHits.Add(context.Background(), 1)
		return
	}
	cacheMisses.Add(context.Background(), 1)
}
