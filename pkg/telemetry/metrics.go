package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// APIMetrics records request counts and latencies against the POS API.
type APIMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewAPIMetrics creates the API instruments on the global meter provider.
// Instruments created before Setup installs the SDK provider are delegated
// to it once installed.
func NewAPIMetrics() *APIMetrics {
	return NewAPIMetricsWithProvider(otel.GetMeterProvider())
}

// NewAPIMetricsWithProvider creates the API instruments on mp.
func NewAPIMetricsWithProvider(mp metric.MeterProvider) *APIMetrics {
	meter := mp.Meter(InstrumentationName)

	m := &APIMetrics{}
	if counter, err := meter.Int64Counter(
		"cashier.api.requests",
		metric.WithDescription("Requests issued to the POS API"),
	); err == nil {
		m.requests = counter
	}
	if histogram, err := meter.Float64Histogram(
		"cashier.api.duration",
		metric.WithDescription("POS API request duration"),
		metric.WithUnit("s"),
	); err == nil {
		m.duration = histogram
	}
	return m
}

// Record adds one request observation. outcome is "success" or an error kind.
func (m *APIMetrics) Record(ctx context.Context, endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	)
	if m.requests != nil {
		m.requests.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
