package config

import "os"

const (
	mongoURIEnv        = "MONGO_URI"
	mongoDatabaseEnv   = "MONGO_DATABASE"
	mongoCollectionEnv = "MONGO_REMINDER_COLLECTION"

	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDatabase   = "remora"
	defaultMongoCollection = "reminders"
)

type MongoConfig struct {
	URI                string
	Database           string
	ReminderCollection string
}

func LoadMongoConfig() *MongoConfig {
	uri := os.Getenv(mongoURIEnv)
	if uri == "" {
		uri = defaultMongoURI
	}

	database := os.Getenv(mongoDatabaseEnv)
	if database == "" {
		database = defaultMongoDatabase
	}

	collection := os.Getenv(mongoCollectionEnv)
	if collection == "" {
		collection = defaultMongoCollection
	}

	return &MongoConfig{
		URI:                uri,
		Database:           database,
		ReminderCollection: collection,
	}
}

func (c *MongoConfig) Validate() error {
	if c == nil || c.URI == "" {
		return ErrMongoURIMissing
	}
	if c.Database == "" {
		return ErrMongoDBMissing
	}
	return nil
}
