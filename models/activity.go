package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity kinds recorded on the audit trail.
const (
	ActivityStageTransition   = "stage_transition"
	ActivityDeadlineCreated   = "deadline_created"
	ActivityDeadlineCompleted = "deadline_completed"
	ActivityDeadlineExtended  = "deadline_extended"
	ActivityCaseCreated       = "case_created"
)

// Activity is one append-only audit record for a stage transition or a
// deadline mutation, consumable by external reporting
type Activity struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details ActivityDetails    `json:"activity" bson:"activity"`
	Version int32              `json:"__v" bson:"__v"`
}

// ActivityDetails holds the inner activity structure
type ActivityDetails struct {
	TenantID    string    `json:"tenantID" bson:"tenantID"`
	CaseID      string    `json:"caseID" bson:"caseID"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	ActorID     string    `json:"actorID" bson:"actorID"`
	Kind        string    `json:"kind" bson:"kind"`
	Description string    `json:"description" bson:"description"`
}
