package databases

// go generate: mockery --name HolidayDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/integrityline/legal-process-api/models"
)

const holidayName = "holidays"

// HolidayDatabase contains the methods to use with the holiday database.
// The holiday table is maintained externally for the applicable
// jurisdiction; the engine only reads it.
type HolidayDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Holiday, error)
}

type holidayDatabase struct {
	db DatabaseHelper
}

// NewHolidayDatabase initializes a new instance of holiday database with the provided db connection
func NewHolidayDatabase(db DatabaseHelper) HolidayDatabase {
	return &holidayDatabase{
		db: db,
	}
}

func (c *holidayDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Holiday, error) {
	var holidays []models.Holiday
	curr, err := c.db.Collection(holidayName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &holidays)
	if err != nil {
		return nil, err
	}
	return holidays, nil
}
