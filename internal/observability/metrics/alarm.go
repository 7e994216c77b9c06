package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	alarmMeterName = "remora.alarm"
)

type AlarmMetrics struct {
	alarmsScheduled   metric.Int64Counter
	alarmsCancelled   metric.Int64Counter
	batchRefills      metric.Int64Counter
	refreshRuns       metric.Int64Counter
	expansionDuration metric.Float64Histogram
	occurrences       metric.Int64Counter
}

func NewAlarmMetrics() (*AlarmMetrics, error) {
	meter := otel.Meter(alarmMeterName)

	alarmsScheduled, err := meter.Int64Counter(
		"alarm_scheduled_total",
		metric.WithDescription("Total number of platform alarms submitted"),
		metric.WithUnit("{alarm}"),
	)
	if err != nil {
		return nil, err
	}

	alarmsCancelled, err := meter.Int64Counter(
		"alarm_cancelled_total",
		metric.WithDescription("Total number of alarm identifiers cancelled"),
		metric.WithUnit("{alarm}"),
	)
	if err != nil {
		return nil, err
	}

	batchRefills, err := meter.Int64Counter(
		"alarm_batch_refills_total",
		metric.WithDescription("Last-in-batch deliveries by refill outcome"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, err
	}

	refreshRuns, err := meter.Int64Counter(
		"alarm_refresh_runs_total",
		metric.WithDescription("Refresh protocol runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	expansionDuration, err := meter.Float64Histogram(
		"occurrence_expansion_duration_seconds",
		metric.WithDescription("Time spent expanding reminders into occurrences"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
		),
	)
	if err != nil {
		return nil, err
	}

	occurrences, err := meter.Int64Counter(
		"occurrence_expanded_total",
		metric.WithDescription("Occurrences produced by expansion"),
		metric.WithUnit("{occurrence}"),
	)
	if err != nil {
		return nil, err
	}

	return &AlarmMetrics{
		alarmsScheduled:   alarmsScheduled,
		alarmsCancelled:   alarmsCancelled,
		batchRefills:      batchRefills,
		refreshRuns:       refreshRuns,
		expansionDuration: expansionDuration,
		occurrences:       occurrences,
	}, nil
}

func (m *AlarmMetrics) RecordAlarmScheduled(ctx context.Context, mode, outcome string) {
	m.alarmsScheduled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
}

func (m *AlarmMetrics) RecordAlarmsCancelled(ctx context.Context, trigger string, count int) {
	m.alarmsCancelled.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("trigger", trigger),
	))
}

func (m *AlarmMetrics) RecordBatchRefill(ctx context.Context, outcome string) {
	m.batchRefills.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *AlarmMetrics) RecordRefreshRun(ctx context.Context, triggered bool) {
	m.refreshRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("triggered", triggered),
	))
}

func (m *AlarmMetrics) RecordExpansion(ctx context.Context, variant string, duration time.Duration, count int) {
	attrs := metric.WithAttributes(attribute.String("variant", variant))
	m.expansionDuration.Record(ctx, duration.Seconds(), attrs)
	m.occurrences.Add(ctx, int64(count), attrs)
}
