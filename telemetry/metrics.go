package telemetry

import (
	"context"
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Meter for metrics
var Meter = otel.Meter("github.com/smokerep/smokerep")

// PrometheusRegistry serves /metrics in watch mode. The OTEL exporter
// registers itself with this registry.
var PrometheusRegistry *promclient.Registry

// Counters following OTEL naming conventions
var (
	ReportsWritten metric.Int64Counter
	EventsSkipped  metric.Int64Counter
	StoreFailures  metric.Int64Counter
)

// InitMetrics wires the OTEL meter provider to a Prometheus exporter
// and creates the counters. Returns a shutdown func for the provider.
func InitMetrics() (shutdown func(context.Context) error, err error) {
	PrometheusRegistry = promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(PrometheusRegistry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	Meter = otel.Meter("github.com/smokerep/smokerep")

	if err := initCounters(); err != nil {
		return nil, err
	}
	return provider.Shutdown, nil
}

func initCounters() error {
	var err error

	ReportsWritten, err = Meter.Int64Counter("smokerep.reports.written",
		metric.WithDescription("Reports persisted to the report directory"))
	if err != nil {
		return fmt.Errorf("failed to create reports counter: %w", err)
	}

	EventsSkipped, err = Meter.Int64Counter("smokerep.events.skipped",
		metric.WithDescription("Events abandoned by per-event parse failures"))
	if err != nil {
		return fmt.Errorf("failed to create skipped counter: %w", err)
	}

	StoreFailures, err = Meter.Int64Counter("smokerep.store.failures",
		metric.WithDescription("Fatal report store failures"))
	if err != nil {
		return fmt.Errorf("failed to create failures counter: %w", err)
	}

	return nil
}
