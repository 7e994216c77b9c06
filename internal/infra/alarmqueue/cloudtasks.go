//go:build gcloud

package alarmqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

const (
	userHeader    = "X-User-ID"
	alarmHeader   = "X-Alarm-ID"
	nameSeparator = "--"
)

type CloudTasksConfig struct {
	ProjectID  string
	LocationID string
	QueueID    string
	TargetURL  string
	MaxRetries int
	Ceiling    int
}

// CloudTasksQueue holds alarms as Cloud Tasks HTTP tasks that POST the alarm
// back to the fired endpoint at fire time.
type CloudTasksQueue struct {
	client     *cloudtasks.Client
	queuePath  string
	targetURL  string
	maxRetries int
	ceiling    int
}

var _ domain.PlatformScheduler = (*CloudTasksQueue)(nil)

func NewCloudTasksQueue(ctx context.Context, cfg CloudTasksConfig) (*CloudTasksQueue, error) {
	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &CloudTasksQueue{
		client:     client,
		queuePath:  fmt.Sprintf("projects/%s/locations/%s/queues/%s", cfg.ProjectID, cfg.LocationID, cfg.QueueID),
		targetURL:  cfg.TargetURL,
		maxRetries: maxRetries,
		ceiling:    cfg.Ceiling,
	}, nil
}

func (q *CloudTasksQueue) Close() error {
	return q.client.Close()
}

type userTask struct {
	name    string
	alarmID string
	fireAt  time.Time
}

// Task names cannot be reused for a while after deletion, so the fire time
// is folded into the name.
func (q *CloudTasksQueue) taskName(alarm domain.Alarm) string {
	return fmt.Sprintf("%s/tasks/%s%s%d", q.queuePath, alarm.ID, nameSeparator, alarm.FireAt.Unix())
}

func (q *CloudTasksQueue) Schedule(ctx context.Context, alarm domain.Alarm) error {
	if alarm.ID == "" || alarm.UserID == "" {
		return ErrInvalidAlarm
	}

	existing, err := q.listUserTasks(ctx, alarm.UserID)
	if err != nil {
		return err
	}

	var replaced []userTask
	for _, t := range existing {
		if t.alarmID == alarm.ID {
			replaced = append(replaced, t)
		}
	}
	if len(replaced) == 0 && q.ceiling > 0 && len(existing) >= q.ceiling {
		return domain.ErrPlatformCeiling
	}
	for _, t := range replaced {
		if err := q.deleteWithRetry(ctx, t.name); err != nil {
			return err
		}
	}

	body, err := EncodeAlarm(alarm)
	if err != nil {
		return err
	}

	req := &taskspb.CreateTaskRequest{
		Parent: q.queuePath,
		Task: &taskspb.Task{
			Name:         q.taskName(alarm),
			ScheduleTime: timestamppb.New(alarm.FireAt),
			MessageType: &taskspb.Task_HttpRequest{
				HttpRequest: &taskspb.HttpRequest{
					HttpMethod: taskspb.HttpMethod_POST,
					Url:        q.targetURL,
					Headers: map[string]string{
						"Content-Type": "application/json",
						userHeader:     alarm.UserID,
						alarmHeader:    alarm.ID,
					},
					Body: body,
				},
			},
		},
	}

	return q.retry(ctx, "create", alarm.ID, func() error {
		_, err := q.client.CreateTask(ctx, req)
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return err
	})
}

func (q *CloudTasksQueue) Cancel(ctx context.Context, userID string, alarmIDs []string) error {
	if len(alarmIDs) == 0 {
		return nil
	}

	wanted := make(map[string]struct{}, len(alarmIDs))
	for _, id := range alarmIDs {
		wanted[id] = struct{}{}
	}

	tasks, err := q.listUserTasks(ctx, userID)
	if err != nil {
		return err
	}

	var errs []error
	for _, t := range tasks {
		if _, ok := wanted[t.alarmID]; !ok {
			continue
		}
		if err := q.deleteWithRetry(ctx, t.name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (q *CloudTasksQueue) ListPending(ctx context.Context, userID string) ([]domain.PendingAlarm, error) {
	tasks, err := q.listUserTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	pending := make([]domain.PendingAlarm, 0, len(tasks))
	for _, t := range tasks {
		pending = append(pending, domain.PendingAlarm{ID: t.alarmID, FireAt: t.fireAt})
	}
	return pending, nil
}

func (q *CloudTasksQueue) listUserTasks(ctx context.Context, userID string) ([]userTask, error) {
	it := q.client.ListTasks(ctx, &taskspb.ListTasksRequest{
		Parent:       q.queuePath,
		ResponseView: taskspb.Task_FULL,
	})

	var tasks []userTask
	for {
		task, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list cloud tasks: %w", err)
		}

		req := task.GetHttpRequest()
		if req == nil || req.GetHeaders()[userHeader] != userID {
			continue
		}

		alarmID := req.GetHeaders()[alarmHeader]
		if alarmID == "" {
			alarmID = alarmIDFromName(task.GetName())
		}

		var fireAt time.Time
		if task.GetScheduleTime() != nil {
			fireAt = task.GetScheduleTime().AsTime()
		}
		tasks = append(tasks, userTask{name: task.GetName(), alarmID: alarmID, fireAt: fireAt})
	}
	return tasks, nil
}

func alarmIDFromName(name string) string {
	id := name[strings.LastIndex(name, "/")+1:]
	if i := strings.LastIndex(id, nameSeparator); i >= 0 {
		return id[:i]
	}
	return id
}

func (q *CloudTasksQueue) deleteWithRetry(ctx context.Context, taskName string) error {
	return q.retry(ctx, "delete", taskName, func() error {
		err := q.client.DeleteTask(ctx, &taskspb.DeleteTaskRequest{Name: taskName})
		if status.Code(err) == codes.NotFound {
			slog.DebugContext(ctx, "task already gone",
				slog.String("task_name", taskName),
			)
			return nil
		}
		return err
	})
}

func (q *CloudTasksQueue) retry(ctx context.Context, op, target string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < q.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			slog.DebugContext(ctx, "retrying cloud tasks call",
				slog.String("op", op),
				slog.String("target", target),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}

	slog.ErrorContext(ctx, "all retries exhausted for cloud tasks call",
		slog.String("op", op),
		slog.String("target", target),
		slog.Int("max_retries", q.maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return fmt.Errorf("cloud tasks %s failed after %d retries: %w", op, q.maxRetries, lastErr)
}
