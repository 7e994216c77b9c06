package domain

import (
	"context"

	"cloud.google.com/go/civil"
)

//go:generate mockgen -source=reminder_repository.go -destination=reminder_repository_mock.go -package=domain

// ReminderRepository persists reminders per principal.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *Reminder) (string, error)
	Set(ctx context.Context, reminder *Reminder) error
	Get(ctx context.Context, userID, id string) (*Reminder, error)
	ListForUser(ctx context.Context, userID string) (map[string]Reminder, error)
	UpdateFields(ctx context.Context, userID, id string, fields map[string]any) error
	// DeleteInstance adds date to the deleted instances in place, leaving
	// every other field as stored.
	DeleteInstance(ctx context.Context, userID, id string, date civil.Date) error
	Delete(ctx context.Context, userID, id string) error
	ListForever(ctx context.Context, userID string) (map[string]Reminder, error)
}
