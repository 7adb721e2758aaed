// Package mongo implements the profile and task stores on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/target/admin-console/internal/errors"
)

const (
	usersCollection    = "users"
	tasksCollection    = "tasks"
	countersCollection = "counters"
)

// Connect opens a client and verifies connectivity.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the stores' queries rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "display_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "display_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}
	_, err = db.Collection(tasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "priority_rank", Value: -1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "assignee_id", Value: 1}, {Key: "due_date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create tasks indexes: %w", err)
	}
	return nil
}

// mapErr converts driver errors into application errors.
func mapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if ctxErr := apperrors.MapContextError(err); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, msg)
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "This value already exists. Please choose a different one.")
	}
	return apperrors.Store(err, msg)
}

// nextSequence atomically increments and returns the named counter.
func nextSequence(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, mapErr(err, "failed to allocate sequence")
	}
	return doc.Seq, nil
}
