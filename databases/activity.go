package databases

// go generate: mockery --name ActivityDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/integrityline/legal-process-api/models"
)

const activityName = "activities"

// ActivityDatabase contains the methods to use with the append-only audit
// trail collection. Activities are never updated or deleted.
type ActivityDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Activity, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type activityDatabase struct {
	db DatabaseHelper
}

// NewActivityDatabase initializes a new instance of activity database with the provided db connection
func NewActivityDatabase(db DatabaseHelper) ActivityDatabase {
	return &activityDatabase{
		db: db,
	}
}

func (c *activityDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Activity, error) {
	var activities []models.Activity
	curr, err := c.db.Collection(activityName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &activities)
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (c *activityDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(activityName).InsertOne(ctx, document, opts...)
	return res, err
}
