//go:build !gcloud

package alarmrecorder

import (
	"context"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

const measurement = "alarm_result"

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.AlarmResultRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "alarm result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, alarm result recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)

	slog.InfoContext(ctx, "alarm result recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket),
	}, nil
}

func toPoint(record domain.AlarmResultRecord, at time.Time) *write.Point {
	runID := record.RunID
	if runID == "" {
		runID = "default"
	}

	fields := map[string]any{
		"scheduled_count": record.ScheduledCount,
		"failed_count":    record.FailedCount,
		"trimmed_count":   record.TrimmedCount,
		"reminder_id":     record.ReminderID,
	}
	if !record.FirstFireAt.IsZero() {
		fields["first_fire_unix"] = record.FirstFireAt.Unix()
	}

	return influxdb2.NewPoint(
		measurement,
		map[string]string{
			"run_id":  runID,
			"user_id": record.UserID,
			"mode":    record.Mode,
			"trigger": record.Trigger,
		},
		fields,
		at,
	)
}

// RecordResults writes one point per record. Write failures are logged and
// never surface to the scheduler.
func (r *influxDBRecorder) RecordResults(ctx context.Context, records []domain.AlarmResultRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*write.Point, 0, len(records))
	now := time.Now()
	for i, record := range records {
		// Distinct timestamps keep points of one run from overwriting each other.
		points = append(points, toPoint(record, now.Add(time.Duration(i)*time.Microsecond)))
	}

	if err := r.writeAPI.WritePoint(ctx, points...); err != nil {
		slog.WarnContext(ctx, "failed to write alarm results to InfluxDB",
			slog.String("error", err.Error()),
			slog.Int("record_count", len(records)),
		)
	}
	return nil
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
