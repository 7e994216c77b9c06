package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const alarmTracerName = "github.com/AdheeshBhat/Remora/internal/service/alarm"

func AlarmTracer() trace.Tracer {
	return otel.Tracer(alarmTracerName)
}

func StartScheduleSpan(ctx context.Context, reminderID, trigger string) (context.Context, trace.Span) {
	return AlarmTracer().Start(ctx, "alarm.schedule",
		trace.WithAttributes(
			attribute.String("reminder_id", reminderID),
			attribute.String("trigger", trigger),
		),
	)
}

func StartRefillSpan(ctx context.Context, reminderID string, nextStart time.Time) (context.Context, trace.Span) {
	return AlarmTracer().Start(ctx, "alarm.refill",
		trace.WithAttributes(
			attribute.String("reminder_id", reminderID),
			attribute.String("next_start", nextStart.Format(time.RFC3339)),
		),
	)
}

func StartRefreshSpan(ctx context.Context, userID string) (context.Context, trace.Span) {
	return AlarmTracer().Start(ctx, "alarm.refresh",
		trace.WithAttributes(
			attribute.String("user_id", userID),
		),
	)
}

func StartPlatformSpan(ctx context.Context, operation string, count int) (context.Context, trace.Span) {
	return AlarmTracer().Start(ctx, "alarm.platform."+operation,
		trace.WithAttributes(
			attribute.Int("alarm.count", count),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordScheduleResult(span trace.Span, mode string, scheduledCount, failedCount, trimmedCount int, err error) {
	span.SetAttributes(
		attribute.String("schedule.mode", mode),
		attribute.Int("schedule.scheduled_count", scheduledCount),
		attribute.Int("schedule.failed_count", failedCount),
		attribute.Int("schedule.trimmed_count", trimmedCount),
	)
	recordStatus(span, err)
}

func RecordRefreshResult(span trace.Span, pendingCount, expiredCount int, triggered bool, processedCount, failedCount int, err error) {
	span.SetAttributes(
		attribute.Int("refresh.pending_count", pendingCount),
		attribute.Int("refresh.expired_count", expiredCount),
		attribute.Bool("refresh.triggered", triggered),
		attribute.Int("refresh.processed_count", processedCount),
		attribute.Int("refresh.failed_count", failedCount),
	)
	recordStatus(span, err)
}

func RecordError(span trace.Span, err error) {
	recordStatus(span, err)
}

func recordStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
