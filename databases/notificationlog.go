package databases

// go generate: mockery --name NotificationLogDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationLogName = "notification_log"

// NotificationLogDatabase records notification emissions so the sweep stays
// at-most-once per dedupe key per calendar day, even across re-runs.
type NotificationLogDatabase interface {
	WasEmitted(ctx context.Context, dedupeKey, day string) (bool, error)
	MarkEmitted(ctx context.Context, dedupeKey, day string, at time.Time) error
}

type notificationLogDatabase struct {
	db DatabaseHelper
}

// NewNotificationLogDatabase initializes a new instance of notification log database with the provided db connection
func NewNotificationLogDatabase(db DatabaseHelper) NotificationLogDatabase {
	return &notificationLogDatabase{
		db: db,
	}
}

func (c *notificationLogDatabase) WasEmitted(ctx context.Context, dedupeKey, day string) (bool, error) {
	count, err := c.db.Collection(notificationLogName).CountDocuments(ctx, bson.M{
		"dedupeKey": dedupeKey,
		"day":       day,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *notificationLogDatabase) MarkEmitted(ctx context.Context, dedupeKey, day string, at time.Time) error {
	_, err := c.db.Collection(notificationLogName).UpdateOne(ctx,
		bson.M{"dedupeKey": dedupeKey, "day": day},
		bson.M{
			"$setOnInsert": bson.M{
				"_id":       primitive.NewObjectID(),
				"dedupeKey": dedupeKey,
				"day":       day,
				"emittedAt": primitive.NewDateTimeFromTime(at),
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
