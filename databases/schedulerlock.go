package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "scheduler_locks"

// SchedulerLockDatabase implements a best-effort distributed lock so a
// scheduled job runs on a single instance at a time.
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, jobName, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

// TryAcquireLock upserts the lock document for jobName unless another
// instance holds an unexpired lock. Expired locks are taken over.
func (c *schedulerLockDatabase) TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id": jobName,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(now)}},
			{"holder": instanceID},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"holder":     instanceID,
			"acquiredAt": primitive.NewDateTimeFromTime(now),
			"expiresAt":  primitive.NewDateTimeFromTime(now.Add(ttl)),
		},
	}

	res, err := c.db.Collection(schedulerLockName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// A duplicate key on the upsert means another instance holds a live
		// lock; anything else is a real database failure.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.MatchedCount() > 0 || res.UpsertedCount() > 0, nil
}

func (c *schedulerLockDatabase) ReleaseLock(ctx context.Context, jobName, instanceID string) error {
	_, err := c.db.Collection(schedulerLockName).UpdateOne(ctx,
		bson.M{"_id": jobName, "holder": instanceID},
		bson.M{"$set": bson.M{"expiresAt": primitive.NewDateTimeFromTime(time.Now())}},
	)
	return err
}
