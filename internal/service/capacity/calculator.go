package capacity

import (
	"context"
	"log/slog"
	"time"
)

type Calculator struct {
	counter Counter
	ceiling int
}

func NewCalculator(counter Counter, ceiling int) *Calculator {
	return &Calculator{
		counter: counter,
		ceiling: ceiling,
	}
}

func (c *Calculator) Ceiling() int {
	return c.ceiling
}

// Available returns how many more alarms the user's platform can hold.
// Expired alarms still count: the platform has not released them yet.
// A failed count reports no room so the ceiling can never be overshot.
func (c *Calculator) Available(ctx context.Context, userID string, now time.Time) int {
	// No ceiling configured
	if c.ceiling <= 0 {
		return int(^uint(0) >> 1)
	}

	live, expired, err := c.counter.PendingCounts(ctx, userID, now)
	if err != nil {
		slog.WarnContext(ctx, "failed to count pending alarms, assuming no capacity",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return 0
	}

	free := c.ceiling - live - expired
	if free < 0 {
		return 0
	}
	return free
}

// NeedsRefill reports whether fewer than threshold live alarms remain.
func (c *Calculator) NeedsRefill(ctx context.Context, userID string, now time.Time, threshold int) (live, expired int, refill bool, err error) {
	live, expired, err = c.counter.PendingCounts(ctx, userID, now)
	if err != nil {
		return 0, 0, false, err
	}
	return live, expired, live < threshold, nil
}
