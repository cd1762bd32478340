// Package telemetry exposes the core's meters: authorization outcomes and
// cache rebuild timings.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments recorded by the authorization facade. A nil
// *Metrics is safe to call and records nothing.
type Metrics struct {
	decisions       metric.Int64Counter
	rebuildDuration metric.Float64Histogram
}

// NewMetrics creates the core's instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	decisions, err := meter.Int64Counter("authz.decisions",
		metric.WithDescription("Authorization decisions by outcome"))
	if err != nil {
		return nil, err
	}
	rebuildDuration, err := meter.Float64Histogram("authz.rebuild.duration",
		metric.WithDescription("Permission cache rebuild duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Metrics{decisions: decisions, rebuildDuration: rebuildDuration}, nil
}

// RecordDecision counts one decision by outcome and resource kind.
func (m *Metrics) RecordDecision(ctx context.Context, outcome, kind string) {
	if m == nil {
		return
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("kind", kind),
	))
}

// RecordRebuild records one rebuild's duration and whether it succeeded.
func (m *Metrics) RecordRebuild(ctx context.Context, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.rebuildDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.Bool("failed", failed),
	))
}
