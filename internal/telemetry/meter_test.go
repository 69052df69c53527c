// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordDecision(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(metricnoop.NewMeterProvider()) })

	ctx := context.Background()
	RecordDecision(ctx, "DirectPlay", "ok", "")
	RecordDecision(ctx, "DirectPlay", "ok", "")
	RecordDecision(ctx, "Transcode", "ok", "h265")
	RecordDecision(ctx, "", "no_playback_info", "")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	got := map[[3]string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != DecisionMetric {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "unexpected data type %T", m.Data)
			assert.True(t, sum.IsMonotonic)
			for _, dp := range sum.DataPoints {
				method, _ := dp.Attributes.Value(attribute.Key("method"))
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				rule, _ := dp.Attributes.Value(attribute.Key("rule"))
				got[[3]string{method.AsString(), outcome.AsString(), rule.AsString()}] = dp.Value
			}
		}
	}
	assert.Equal(t, map[[3]string]int64{
		{"DirectPlay", "ok", "none"}:         2,
		{"Transcode", "ok", "h265"}:          1,
		{"none", "no_playback_info", "none"}: 1,
	}, got)
}

func TestNewProvider_InvalidExporterInstallsNothing(t *testing.T) {
	before := otel.GetMeterProvider()
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "kafka"})
	require.Error(t, err)
	assert.Equal(t, before, otel.GetMeterProvider())
}
