package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recommendation statuses.
const (
	RecommendationPending    = "pending"
	RecommendationInProgress = "in_progress"
	RecommendationClosed     = "closed"
)

// Recommendation holds the structure for the recommendation collection in
// mongo. Recommendations come from the remediation-tracking side of the
// platform and are read by the notification sweep independent of the stage
// engine.
type Recommendation struct {
	ID      primitive.ObjectID    `json:"_id" bson:"_id"`
	Details RecommendationDetails `json:"recommendation" bson:"recommendation"`
	Version int32                 `json:"__v" bson:"__v"`
}

// RecommendationDetails holds the inner recommendation structure
type RecommendationDetails struct {
	TenantID       string     `json:"tenantID" bson:"tenantID"`
	CaseID         string     `json:"caseID" bson:"caseID"`
	Title          string     `json:"title" bson:"title"`
	Status         string     `json:"status" bson:"status"` // "pending", "in_progress", "closed"
	AssignedUserID string     `json:"assignedUserID" bson:"assignedUserID"`
	DueDate        *time.Time `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Open reports whether the recommendation still needs tracking
func (d RecommendationDetails) Open() bool {
	return d.Status == RecommendationPending || d.Status == RecommendationInProgress
}
