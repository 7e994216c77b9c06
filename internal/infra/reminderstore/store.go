package reminderstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

const foreverValue = "Forever"

type Config struct {
	// Collection holds one document per reminder. Required.
	Collection *mongo.Collection

	// Location anchors are read into. Calendar-day comparisons (until dates,
	// deleted instances) happen in this zone. Defaults to time.Local.
	Location *time.Location
}

type Store struct {
	collection *mongo.Collection
	loc        *time.Location
}

var _ domain.ReminderRepository = (*Store)(nil)

func NewStore(cfg Config) (*Store, error) {
	if cfg.Collection == nil {
		return nil, fmt.Errorf("collection is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Store{
		collection: cfg.Collection,
		loc:        cfg.Location,
	}, nil
}

// EnsureIndexes creates the indexes the read paths rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: fieldUserID, Value: 1}}},
		{Keys: bson.D{
			{Key: fieldUserID, Value: 1},
			{Key: fieldRepeatSettings + "." + fieldRepeatUntilDate, Value: 1},
		}},
	})
	if err != nil {
		return fmt.Errorf("create indexes failed: %w", err)
	}
	return nil
}

func byID(userID, id string) bson.M {
	return bson.M{fieldMongoID: id, fieldUserID: userID}
}

func (s *Store) Create(ctx context.Context, reminder *domain.Reminder) (string, error) {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}

	if _, err := s.collection.InsertOne(ctx, encodeReminder(reminder)); err != nil {
		return "", fmt.Errorf("insert failed: %w", err)
	}
	return reminder.ID, nil
}

// Set writes the whole reminder, creating it when absent.
func (s *Store) Set(ctx context.Context, reminder *domain.Reminder) error {
	if reminder.ID == "" || reminder.UserID == "" {
		return ErrInvalidDocument
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, byID(reminder.UserID, reminder.ID), encodeReminder(reminder), opts); err != nil {
		return fmt.Errorf("replace failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (*domain.Reminder, error) {
	var doc reminderDoc
	err := s.collection.FindOne(ctx, byID(userID, id)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, fmt.Errorf("find failed: %w", err)
	}
	return decodeReminder(&doc, s.loc), nil
}

func (s *Store) ListForUser(ctx context.Context, userID string) (map[string]domain.Reminder, error) {
	return s.find(ctx, bson.M{fieldUserID: userID})
}

// ListForever returns the reminders whose recurrence never ends, including
// documents that still carry the repeat fields at the top level.
func (s *Store) ListForever(ctx context.Context, userID string) (map[string]domain.Reminder, error) {
	filter := bson.M{
		fieldUserID: userID,
		"$or": []bson.M{
			{fieldRepeatSettings + "." + fieldRepeatUntilDate: foreverValue},
			{
				fieldRepeatSettings:  bson.M{"$exists": false},
				fieldRepeatUntilDate: foreverValue,
			},
		},
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) (map[string]domain.Reminder, error) {
	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find failed: %w", err)
	}
	defer cursor.Close(ctx)

	out := make(map[string]domain.Reminder)
	for cursor.Next(ctx) {
		var doc reminderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		r := decodeReminder(&doc, s.loc)
		out[r.ID] = *r
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor failed: %w", err)
	}
	return out, nil
}

// UpdateFields applies a partial update. Field names are document paths
// (e.g. "repeatSettings.repeat_until_date"); unknown names are rejected.
func (s *Store) UpdateFields(ctx context.Context, userID, id string, fields map[string]any) error {
	set, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	if len(set) == 0 {
		return nil
	}

	result, err := s.collection.UpdateOne(ctx, byID(userID, id), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

// DeleteInstance records one suppressed day with $addToSet so concurrent
// edits to other fields are not overwritten.
func (s *Store) DeleteInstance(ctx context.Context, userID, id string, date civil.Date) error {
	update := bson.M{"$addToSet": bson.M{fieldDeletedInstances: date.String()}}
	result, err := s.collection.UpdateOne(ctx, byID(userID, id), update)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	result, err := s.collection.DeleteOne(ctx, byID(userID, id))
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

// Ping reports whether the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.collection.Database().Client().Ping(ctx, nil)
}
