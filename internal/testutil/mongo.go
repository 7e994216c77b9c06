package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTestURIEnv = "MONGO_TEST_URI"

// SetupMongoCollection connects to the database named by MONGO_TEST_URI and
// returns a fresh collection that is dropped on cleanup. The test is skipped
// when no database is configured or reachable.
func SetupMongoCollection(ctx context.Context, t *testing.T) (*mongo.Collection, func()) {
	t.Helper()

	uri := os.Getenv(mongoTestURIEnv)
	if uri == "" {
		t.Skipf("%s not set", mongoTestURIEnv)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("failed to connect to mongo: %v", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("failed to ping mongo: %v", err)
	}

	collection := client.Database("remora_test").Collection("reminders_" + uuid.NewString()[:8])

	cleanup := func() {
		if err := collection.Drop(ctx); err != nil {
			t.Logf("failed to drop test collection: %v", err)
		}
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("failed to disconnect mongo client: %v", err)
		}
	}

	return collection, cleanup
}
