package capacity

import (
	"context"
	"fmt"
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

type Counter interface {
	PendingCounts(ctx context.Context, userID string, now time.Time) (live, expired int, err error)
}

type counterImpl struct {
	platform domain.PlatformScheduler
}

func NewCounter(platform domain.PlatformScheduler) Counter {
	return &counterImpl{
		platform: platform,
	}
}

// PendingCounts splits the user's pending alarms into live ones and ones
// whose fire time has already passed but that the platform still lists.
func (c *counterImpl) PendingCounts(ctx context.Context, userID string, now time.Time) (int, int, error) {
	pending, err := c.platform.ListPending(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list pending alarms for user %s: %w", userID, err)
	}

	expired := 0
	for _, p := range pending {
		if p.FireAt.Before(now) {
			expired++
		}
	}
	return len(pending) - expired, expired, nil
}
