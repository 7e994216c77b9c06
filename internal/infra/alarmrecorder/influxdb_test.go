//go:build !gcloud

package alarmrecorder

import (
	"context"
	"testing"
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

func TestNewRecorderFallsBackToNoop(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "disabled", cfg: &Config{Disabled: true, InfluxDBToken: "t", InfluxDBOrg: "o"}},
		{name: "missing token", cfg: &Config{InfluxDBOrg: "o"}},
		{name: "missing org", cfg: &Config{InfluxDBToken: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewRecorder(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("NewRecorder() error = %v", err)
			}
			if _, ok := rec.(*noopRecorder); !ok {
				t.Errorf("expected noop recorder, got %T", rec)
			}
		})
	}
}

func TestToPoint(t *testing.T) {
	fire := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	point := toPoint(domain.AlarmResultRecord{
		UserID:         "user-1",
		ReminderID:     "r1",
		Mode:           "forever_batch",
		Trigger:        "refill",
		FirstFireAt:    fire,
		ScheduledCount: 50,
	}, fire)

	if point.Name() != measurement {
		t.Errorf("Name() = %q, want %q", point.Name(), measurement)
	}

	tags := make(map[string]string)
	for _, tag := range point.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["run_id"] != "default" {
		t.Errorf("run_id = %q, want default", tags["run_id"])
	}
	if tags["mode"] != "forever_batch" || tags["trigger"] != "refill" {
		t.Errorf("unexpected tags: %v", tags)
	}

	fields := make(map[string]any)
	for _, f := range point.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["first_fire_unix"] != fire.Unix() {
		t.Errorf("first_fire_unix = %v, want %d", fields["first_fire_unix"], fire.Unix())
	}
}
