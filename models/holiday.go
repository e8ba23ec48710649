package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Holiday is one declared non-working day for a jurisdiction. The holiday
// table is injected configuration, refreshed at sweep start.
type Holiday struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	Date         time.Time          `json:"date" bson:"date"`
	Name         string             `json:"name" bson:"name"`
	Jurisdiction string             `json:"jurisdiction" bson:"jurisdiction"`
}
