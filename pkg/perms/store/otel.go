package store

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	meter  = otel.Meter("perms/store")
	tracer = otel.Tracer("perms/store")
)

// startReload starts the span of a world reload.
// end records err on the span and ends it.
func startReload(world string, generation uint64) (end func(err error)) {
	_, span := tracer.Start(context.Background(), "perms.ReloadWorld",
		trace.WithAttributes(
			attribute.String("world", world),
			attribute.Int64("generation", int64(generation)),
		))
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

var reloadCounter, _ = meter.Int64Counter(
	"perms.reloads",
	metric.WithDescription("The number of world reloads by result"),
	metric.WithUnit("1"),
)

func recordReload(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	reloadCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("result", result)))
}

// initMeter registers the loaded worlds gauge of s. Close unregisters it.
func (s *Store) initMeter(mp metric.MeterProvider) (metric.Registration, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter("perms/store")
	worlds, err := m.Int64ObservableGauge(
		"perms.worlds",
		metric.WithDescription("The current number of loaded worlds"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	return m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(worlds, int64(len(s.Worlds())))
		return nil
	}, worlds)
}
