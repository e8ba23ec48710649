package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds emitted by the sweep.
const (
	NotificationDeadlineReminder      = "deadline_reminder"
	NotificationRecommendationDueSoon = "recommendation_due_soon"
	NotificationRecommendationOverdue = "recommendation_overdue"
)

// NotificationRequest is the ephemeral payload handed to the delivery
// collaborator. The engine guarantees a well-formed, de-duplicated request,
// not delivery success.
type NotificationRequest struct {
	TenantID        string `json:"tenantID"`
	CaseID          string `json:"caseID"`
	RecipientRole   string `json:"recipientRole"`
	RecipientUserID string `json:"recipientUserID,omitempty"`
	Kind            string `json:"kind"`
	Title           string `json:"title"`
	ThresholdDays   int    `json:"thresholdDays"`
	DedupeKey       string `json:"dedupeKey"`
}

// NotificationLogEntry records one emission so the sweep stays at-most-once
// per dedupe key per calendar day
type NotificationLogEntry struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	DedupeKey string             `json:"dedupeKey" bson:"dedupeKey"`
	Day       string             `json:"day" bson:"day"` // YYYY-MM-DD
	EmittedAt time.Time          `json:"emittedAt" bson:"emittedAt"`
}
