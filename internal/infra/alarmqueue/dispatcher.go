package alarmqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

const (
	DefaultPollSpec    = "@every 1s"
	DefaultRefreshSpec = "0 */15 * * * *"
)

// DueSource hands out alarms whose fire time has passed.
type DueSource interface {
	PopDue(ctx context.Context, now time.Time) ([]domain.Alarm, error)
	Users(ctx context.Context) ([]string, error)
}

// RefreshFunc runs the top-up protocol for one user.
type RefreshFunc func(ctx context.Context, userID string) error

type DispatcherConfig struct {
	// PollSpec controls how often due alarms are delivered.
	PollSpec string
	// RefreshSpec schedules a periodic refresh sweep over all users.
	// Empty disables the sweep.
	RefreshSpec string
	Clock       func() time.Time
}

// Dispatcher delivers due alarms from the queue to the fired handler, the
// local stand-in for a device's notification scheduler.
type Dispatcher struct {
	source  DueSource
	handler domain.FiredHandler
	refresh RefreshFunc
	cfg     DispatcherConfig

	mu      sync.Mutex
	cron    *cron.Cron
	baseCtx context.Context
}

var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func NewDispatcher(source DueSource, handler domain.FiredHandler, refresh RefreshFunc, cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.PollSpec == "" {
		cfg.PollSpec = DefaultPollSpec
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if _, err := specParser.Parse(cfg.PollSpec); err != nil {
		return nil, fmt.Errorf("invalid poll schedule %q: %w", cfg.PollSpec, err)
	}
	if cfg.RefreshSpec != "" {
		if _, err := specParser.Parse(cfg.RefreshSpec); err != nil {
			return nil, fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshSpec, err)
		}
	}

	return &Dispatcher{
		source:  source,
		handler: handler,
		refresh: refresh,
		cfg:     cfg,
	}, nil
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron != nil {
		return ErrDispatcherRunning
	}

	c := cron.New(
		cron.WithParser(specParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	d.baseCtx = ctx

	if _, err := c.AddFunc(d.cfg.PollSpec, func() { d.DispatchDue(d.baseCtx) }); err != nil {
		return err
	}
	if d.cfg.RefreshSpec != "" && d.refresh != nil {
		if _, err := c.AddFunc(d.cfg.RefreshSpec, func() { d.RefreshAll(d.baseCtx) }); err != nil {
			return err
		}
	}

	c.Start()
	d.cron = c

	slog.InfoContext(ctx, "alarm dispatcher started",
		slog.String("poll_spec", d.cfg.PollSpec),
		slog.String("refresh_spec", d.cfg.RefreshSpec),
	)
	return nil
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	c := d.cron
	d.cron = nil
	d.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DispatchDue delivers every due alarm once. Handler errors are logged and
// do not stop delivery of the rest.
func (d *Dispatcher) DispatchDue(ctx context.Context) int {
	alarms, err := d.source.PopDue(ctx, d.cfg.Clock())
	if err != nil {
		slog.ErrorContext(ctx, "failed to claim due alarms",
			slog.String("error", err.Error()),
		)
	}

	for _, a := range alarms {
		if err := d.handler.HandleFired(ctx, a.ID, a.Payload); err != nil {
			slog.ErrorContext(ctx, "fired handler failed",
				slog.String("alarm_id", a.ID),
				slog.String("user_id", a.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(alarms) > 0 {
		slog.DebugContext(ctx, "dispatched due alarms",
			slog.Int("count", len(alarms)),
		)
	}
	return len(alarms)
}

func (d *Dispatcher) RefreshAll(ctx context.Context) {
	if d.refresh == nil {
		return
	}

	users, err := d.source.Users(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list alarm users",
			slog.String("error", err.Error()),
		)
		return
	}

	for _, userID := range users {
		if err := d.refresh(ctx, userID); err != nil {
			slog.WarnContext(ctx, "periodic refresh failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
}
