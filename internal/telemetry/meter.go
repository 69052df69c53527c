// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DecisionMetric counts finished resolutions.
const DecisionMetric = "embyplay_decision_total"

const meterName = "embyplay.playback"

// RecordDecision counts one resolution by chosen method, outcome and the
// forced-transcode rule that applied. Empty labels are reported as "none".
func RecordDecision(ctx context.Context, method, outcome, rule string) {
	// Looked up per call so a provider installed later is honoured.
	meter := otel.GetMeterProvider().Meter(meterName)
	counter, err := meter.Int64Counter(DecisionMetric, metric.WithDescription("Total playback resolution decisions"))
	if err != nil {
		otel.Handle(err)
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", orNone(method)),
		attribute.String("outcome", orNone(outcome)),
		attribute.String("rule", orNone(rule)),
	))
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func newMetricExporter(ctx context.Context, cfg Config) (sdkmetric.Exporter, error) {
	switch cfg.ExporterType {
	case "grpc":
		exp, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC metric exporter: %w", err)
		}
		return exp, nil
	case "http":
		exp, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metric exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s (supported: grpc, http)", cfg.ExporterType)
	}
}
