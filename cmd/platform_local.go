//go:build !gcloud

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"os"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/AdheeshBhat/Remora/internal/config"
	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/health"
	"github.com/AdheeshBhat/Remora/internal/infra/alarmqueue"
	"github.com/AdheeshBhat/Remora/internal/observability"
	"github.com/AdheeshBhat/Remora/internal/observability/logging"
)

// initPlatform keeps pending alarms in Redis and delivers them with the cron
// dispatcher.
func initPlatform(ctx context.Context, cfg *config.Config) (*platform, error) {
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	queue := alarmqueue.NewRedisQueue(redisClient, cfg.Alarm.PlatformCeiling)

	slog.Info("alarm platform initialized",
		slog.String("type", "redis"),
		slog.String("addr", cfg.Redis.Addr),
		slog.Int("ceiling", cfg.Alarm.PlatformCeiling),
	)

	var dispatcher *alarmqueue.Dispatcher

	return &platform{
		scheduler: queue,
		checks:    map[string]health.Check{"redis": health.RedisCheck(redisClient)},
		start: func(ctx context.Context, fired domain.FiredHandler, refresh alarmqueue.RefreshFunc) error {
			d, err := alarmqueue.NewDispatcher(queue, fired, refresh, alarmqueue.DispatcherConfig{
				PollSpec:    cfg.Dispatcher.PollSpec,
				RefreshSpec: cfg.Dispatcher.RefreshSpec,
			})
			if err != nil {
				return err
			}
			dispatcher = d
			return d.Start(ctx)
		},
		close: func(ctx context.Context) error {
			var errs []error
			if dispatcher != nil {
				errs = append(errs, dispatcher.Stop(ctx))
			}
			errs = append(errs, redisClient.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func connectRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(opts)

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		_ = redisClient.Close()
		return nil, err
	}

	slog.Info("redis connected", slog.String("addr", cfg.Addr))
	return redisClient, nil
}

func initObservability(ctx context.Context, cfg *config.Config) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "remora"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:    serviceName,
			Version: Version,
		},
		Environment:   env,
		SamplingRate:  1.0,
		DefaultModule: serviceModule,
		LogLevel:      cfg.LogLevel,
	})
}
