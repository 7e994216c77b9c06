//go:build gcloud

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/AdheeshBhat/Remora/internal/config"
	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/infra/alarmqueue"
	"github.com/AdheeshBhat/Remora/internal/observability"
	"github.com/AdheeshBhat/Remora/internal/observability/logging"
)

// initPlatform holds alarms as Cloud Tasks. Delivery is the task's HTTP call
// to the fired endpoint, so nothing runs in process.
func initPlatform(ctx context.Context, cfg *config.Config) (*platform, error) {
	queue, err := alarmqueue.NewCloudTasksQueue(ctx, alarmqueue.CloudTasksConfig{
		ProjectID:  cfg.TaskQueue.GCloudProjectID,
		LocationID: cfg.TaskQueue.GCloudLocationID,
		QueueID:    cfg.TaskQueue.GCloudQueueID,
		TargetURL:  cfg.TaskQueue.GCloudTargetURL,
		MaxRetries: cfg.TaskQueue.MaxRetries,
		Ceiling:    cfg.Alarm.PlatformCeiling,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("alarm platform initialized",
		slog.String("type", "cloud_tasks"),
		slog.String("project", cfg.TaskQueue.GCloudProjectID),
		slog.String("location", cfg.TaskQueue.GCloudLocationID),
		slog.String("queue", cfg.TaskQueue.GCloudQueueID),
	)

	return &platform{
		scheduler: queue,
		start: func(context.Context, domain.FiredHandler, alarmqueue.RefreshFunc) error {
			return nil
		},
		close: func(context.Context) error {
			if err := queue.Close(); err != nil {
				slog.Warn("failed to close cloud tasks client", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}, nil
}

func initObservability(ctx context.Context, cfg *config.Config) (*observability.Resources, error) {
	serviceName := os.Getenv("K_SERVICE")
	if serviceName == "" {
		serviceName = "remora"
	}

	env := logging.EnvProd
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = cfg.TaskQueue.GCloudProjectID
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     serviceName,
			Version:  Version,
			Revision: os.Getenv("K_REVISION"),
		},
		Environment:   env,
		GCPProjectID:  projectID,
		SamplingRate:  1.0,
		DefaultModule: serviceModule,
		LogLevel:      cfg.LogLevel,
	})
}
