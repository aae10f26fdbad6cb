// Package otelutil sets up OpenTelemetry exporters for the perms command.
package otelutil

import (
	"context"
	"os"

	"github.com/go-logr/logr"
	"github.com/honeycombio/otel-config-go/otelconfig"

	"go.minekube.com/perms/pkg/version"
)

// Init configures the global OpenTelemetry providers. Exporters are
// configured by the standard OTEL_* environment variables, e.g.
// OTEL_EXPORTER_OTLP_ENDPOINT. The returned func flushes and shuts them down.
func Init(ctx context.Context) (clean func(), err error) {
	opts := []otelconfig.Option{
		otelconfig.WithServiceVersion(version.String()),
		otelconfig.WithMetricsEnabled(true),
		otelconfig.WithTracesEnabled(true),
	}
	if os.Getenv("OTEL_SERVICE_NAME") == "" {
		opts = append(opts, otelconfig.WithServiceName("perms"))
	}
	shutdown, err := otelconfig.ConfigureOpenTelemetry(opts...)
	if err != nil {
		return nil, err
	}
	logr.FromContextOrDiscard(ctx).V(1).Info("initialized OpenTelemetry")
	return shutdown, nil
}
