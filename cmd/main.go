package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AdheeshBhat/Remora/internal/config"
	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/handler"
	"github.com/AdheeshBhat/Remora/internal/health"
	"github.com/AdheeshBhat/Remora/internal/infra/alarmqueue"
	"github.com/AdheeshBhat/Remora/internal/infra/alarmrecorder"
	"github.com/AdheeshBhat/Remora/internal/infra/reminderstore"
	"github.com/AdheeshBhat/Remora/internal/observability/logging"
	"github.com/AdheeshBhat/Remora/internal/observability/metrics"
	"github.com/AdheeshBhat/Remora/internal/observability/middleware"
	"github.com/AdheeshBhat/Remora/internal/service/alarm"
	"github.com/AdheeshBhat/Remora/internal/service/capacity"
)

// Version is set via ldflags at build time
var Version = "dev"

const serviceModule = logging.Module("remora")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	alarmMetrics, err := metrics.NewAlarmMetrics()
	if err != nil {
		slog.Error("failed to initialize alarm metrics", slog.String("error", err.Error()))
		return 1
	}

	// InfluxDB locally, BigQuery under gcloud
	resultRecorder, err := alarmrecorder.NewRecorder(ctx, alarmrecorder.LoadConfig())
	if err != nil {
		slog.Error("failed to initialize alarm result recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := resultRecorder.Close(); err != nil {
			slog.Warn("failed to close alarm result recorder", slog.String("error", err.Error()))
		}
	}()

	mongoClient, err := connectMongo(ctx, cfg.Mongo)
	if err != nil {
		slog.Error("failed to connect mongo",
			slog.String("event", "mongo.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			slog.Warn("failed to disconnect mongo client", slog.String("error", err.Error()))
		}
	}()

	store, err := reminderstore.NewStore(reminderstore.Config{
		Collection: mongoClient.Database(cfg.Mongo.Database).Collection(cfg.Mongo.ReminderCollection),
		Location:   cfg.Alarm.Location,
	})
	if err != nil {
		slog.Error("failed to create reminder store", slog.String("error", err.Error()))
		return 1
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		slog.Warn("failed to ensure reminder indexes", slog.String("error", err.Error()))
	}

	slog.Info("mongo connected",
		slog.String("database", cfg.Mongo.Database),
		slog.String("collection", cfg.Mongo.ReminderCollection),
	)

	plat, err := initPlatform(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize alarm platform", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := plat.close(closeCtx); err != nil {
			slog.Warn("alarm platform shutdown error", slog.String("error", err.Error()))
		}
	}()

	calculator := capacity.NewCalculator(capacity.NewCounter(plat.scheduler), cfg.Alarm.PlatformCeiling)
	alarmService := alarm.NewService(
		store,
		plat.scheduler,
		calculator,
		resultRecorder,
		alarmMetrics,
		alarm.Settings{
			MaxBatch:        cfg.Alarm.MaxBatch,
			SingleShotCap:   cfg.Alarm.SingleShotCap,
			RefillThreshold: cfg.Alarm.RefillThreshold,
			Sound:           cfg.Alarm.Sound,
		},
	)

	refresh := func(ctx context.Context, userID string) error {
		_, err := alarmService.Refresh(ctx, userID)
		return err
	}
	if err := plat.start(ctx, alarmService, refresh); err != nil {
		slog.Error("failed to start alarm platform", slog.String("error", err.Error()))
		return 1
	}

	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready"},
		Module:      serviceModule,
		TracerName:  "github.com/AdheeshBhat/Remora/internal/observability/middleware",
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	checks := map[string]health.Check{"mongo": store.Ping}
	for name, check := range plat.checks {
		checks[name] = check
	}
	healthChecker := health.NewChecker(Version, checks)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	v1 := r.Group("/api/v1")
	handler.NewReminderHandler(store, alarmService, cfg.Alarm.Location).Register(v1)
	handler.NewViewHandler(store, alarmMetrics, cfg.Alarm.Location, nil).Register(v1)
	handler.NewAlarmHandler(alarmService, plat.scheduler).Register(v1)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.Int("max_batch", cfg.Alarm.MaxBatch),
			slog.Int("single_shot_cap", cfg.Alarm.SingleShotCap),
			slog.Int("platform_ceiling", cfg.Alarm.PlatformCeiling),
			slog.String("timezone", cfg.Alarm.Location.String()),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}

func connectMongo(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// platform is the alarm substrate plus its lifecycle.
type platform struct {
	scheduler domain.PlatformScheduler
	checks    map[string]health.Check
	start     func(ctx context.Context, fired domain.FiredHandler, refresh alarmqueue.RefreshFunc) error
	close     func(ctx context.Context) error
}
