//go:build gcloud

package alarmrecorder

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

type bigQueryRecord struct {
	RecordedAt     time.Time              `bigquery:"recorded_at"`
	RunID          string                 `bigquery:"run_id"`
	UserID         string                 `bigquery:"user_id"`
	ReminderID     string                 `bigquery:"reminder_id"`
	Mode           string                 `bigquery:"mode"`
	Trigger        string                 `bigquery:"trigger"`
	FirstFireAt    bigquery.NullTimestamp `bigquery:"first_fire_at"`
	ScheduledCount int64                  `bigquery:"scheduled_count"`
	FailedCount    int64                  `bigquery:"failed_count"`
	TrimmedCount   int64                  `bigquery:"trimmed_count"`
}

type bigQueryRecorder struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.AlarmResultRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "alarm result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, alarm result recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, alarm result recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	slog.InfoContext(ctx, "alarm result recorder initialized",
		slog.String("type", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("table", cfg.BigQueryTable),
	)

	return &bigQueryRecorder{
		client:   client,
		inserter: client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable).Inserter(),
	}, nil
}

func (r *bigQueryRecorder) RecordResults(ctx context.Context, records []domain.AlarmResultRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*bigQueryRecord, 0, len(records))
	for _, record := range records {
		rows = append(rows, &bigQueryRecord{
			RecordedAt:     now,
			RunID:          record.RunID,
			UserID:         record.UserID,
			ReminderID:     record.ReminderID,
			Mode:           record.Mode,
			Trigger:        record.Trigger,
			FirstFireAt:    bigquery.NullTimestamp{Timestamp: record.FirstFireAt, Valid: !record.FirstFireAt.IsZero()},
			ScheduledCount: int64(record.ScheduledCount),
			FailedCount:    int64(record.FailedCount),
			TrimmedCount:   int64(record.TrimmedCount),
		})
	}

	if err := r.inserter.Put(ctx, rows); err != nil {
		slog.WarnContext(ctx, "failed to insert alarm results to BigQuery",
			slog.String("error", err.Error()),
			slog.Int("record_count", len(records)),
		)
	}
	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
