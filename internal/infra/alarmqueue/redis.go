package alarmqueue

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

const (
	pendingKeyPrefix = "alarm:pending:"
	payloadKeyPrefix = "alarm:payload:"
	usersKey         = "alarm:users"

	maxWatchRetries = 5
)

// RedisQueue keeps each user's pending alarms in a sorted set scored by fire
// time, with payloads in a companion hash.
type RedisQueue struct {
	client  *redis.Client
	ceiling int
}

func NewRedisQueue(client *redis.Client, ceiling int) *RedisQueue {
	return &RedisQueue{
		client:  client,
		ceiling: ceiling,
	}
}

var _ domain.PlatformScheduler = (*RedisQueue)(nil)

// Schedule stores the alarm, replacing one with the same identifier. A new
// identifier is refused with domain.ErrPlatformCeiling once the user holds
// ceiling alarms.
func (q *RedisQueue) Schedule(ctx context.Context, alarm domain.Alarm) error {
	if alarm.ID == "" || alarm.UserID == "" {
		return ErrInvalidAlarm
	}

	data, err := EncodeAlarm(alarm)
	if err != nil {
		return err
	}

	pendingKey := pendingKeyPrefix + alarm.UserID
	payloadKey := payloadKeyPrefix + alarm.UserID

	txf := func(tx *redis.Tx) error {
		if q.ceiling > 0 {
			_, err := tx.ZScore(ctx, pendingKey, alarm.ID).Result()
			switch {
			case errors.Is(err, redis.Nil):
				count, err := tx.ZCard(ctx, pendingKey).Result()
				if err != nil {
					return err
				}
				if count >= int64(q.ceiling) {
					return domain.ErrPlatformCeiling
				}
			case err != nil:
				return err
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, pendingKey, redis.Z{Score: score(alarm.FireAt), Member: alarm.ID})
			pipe.HSet(ctx, payloadKey, alarm.ID, data)
			pipe.SAdd(ctx, usersKey, alarm.UserID)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := q.client.Watch(ctx, txf, pendingKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConcurrentUpdate
}

// Cancel removes the given identifiers. Unknown identifiers are ignored.
func (q *RedisQueue) Cancel(ctx context.Context, userID string, alarmIDs []string) error {
	if len(alarmIDs) == 0 {
		return nil
	}

	members := make([]any, 0, len(alarmIDs))
	for _, id := range alarmIDs {
		members = append(members, id)
	}

	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, pendingKeyPrefix+userID, members...)
	pipe.HDel(ctx, payloadKeyPrefix+userID, alarmIDs...)

	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisQueue) ListPending(ctx context.Context, userID string) ([]domain.PendingAlarm, error) {
	entries, err := q.client.ZRangeWithScores(ctx, pendingKeyPrefix+userID, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	pending := make([]domain.PendingAlarm, 0, len(entries))
	for _, e := range entries {
		id, ok := e.Member.(string)
		if !ok {
			continue
		}
		pending = append(pending, domain.PendingAlarm{
			ID:     id,
			FireAt: fromScore(e.Score),
		})
	}
	return pending, nil
}

// PopDue claims every alarm whose fire time is at or before now. An alarm is
// returned by at most one caller even when several dispatchers race.
func (q *RedisQueue) PopDue(ctx context.Context, now time.Time) ([]domain.Alarm, error) {
	users, err := q.client.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, err
	}

	var due []domain.Alarm
	for _, userID := range users {
		alarms, err := q.popDueForUser(ctx, userID, now)
		if err != nil {
			return due, err
		}
		due = append(due, alarms...)
	}
	return due, nil
}

func (q *RedisQueue) popDueForUser(ctx context.Context, userID string, now time.Time) ([]domain.Alarm, error) {
	pendingKey := pendingKeyPrefix + userID
	payloadKey := payloadKeyPrefix + userID

	ids, err := q.client.ZRangeByScore(ctx, pendingKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatFloat(score(now), 'f', -1, 64),
	}).Result()
	if err != nil {
		return nil, err
	}

	alarms := make([]domain.Alarm, 0, len(ids))
	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, pendingKey, id).Result()
		if err != nil {
			return alarms, err
		}
		if removed == 0 {
			continue
		}

		data, err := q.client.HGet(ctx, payloadKey, id).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return alarms, err
		}
		if err := q.client.HDel(ctx, payloadKey, id).Err(); err != nil {
			return alarms, err
		}

		alarm, err := DecodeAlarm(data)
		if err != nil {
			return alarms, err
		}
		alarms = append(alarms, alarm)
	}
	return alarms, nil
}

// Users lists every user that has ever held an alarm.
func (q *RedisQueue) Users(ctx context.Context) ([]string, error) {
	return q.client.SMembers(ctx, usersKey).Result()
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func fromScore(s float64) time.Time {
	return time.UnixMilli(int64(s))
}
