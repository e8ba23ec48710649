package models

import "time"

// DayUnit selects the day arithmetic for a legal offset.
type DayUnit string

// Day units. Most legal offsets run in business days; a minority (e.g. the
// measure-implementation window) run in calendar days.
const (
	BusinessDays DayUnit = "businessDays"
	CalendarDays DayUnit = "calendarDays"
)

// StageType is the legal weight of a deadline.
type StageType string

// Stage types.
const (
	StageTypeMandatory   StageType = "mandatory"
	StageTypeRecommended StageType = "recommended"
	StageTypeOptional    StageType = "optional"
)

// AlertLevel is the human-facing urgency classification of a deadline,
// always judged in business-day proximity to the due date.
type AlertLevel string

// Alert levels, ordered by urgency.
const (
	AlertCompleted AlertLevel = "completed"
	AlertOverdue   AlertLevel = "overdue"
	AlertCritical  AlertLevel = "critical"
	AlertWarning   AlertLevel = "warning"
	AlertInfo      AlertLevel = "info"
	AlertNormal    AlertLevel = "normal"
)

// Deadline holds one legal deadline embedded in the case document. Deadlines
// are never deleted, only marked completed. The due date is always derived
// (trigger date + offset under the day unit) and is only ever moved through
// an extension.
type Deadline struct {
	ID          string    `json:"id" bson:"id"`
	TemplateKey string    `json:"templateKey,omitempty" bson:"templateKey,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Stage       Stage     `json:"stage" bson:"stage"`
	StageType   StageType `json:"stageType" bson:"stageType"`
	LegalBasis  string    `json:"legalBasis" bson:"legalBasis"`

	TriggerDate time.Time `json:"triggerDate" bson:"triggerDate"`
	DayUnit     DayUnit   `json:"dayUnit" bson:"dayUnit"`
	Offset      int       `json:"offset" bson:"offset"`
	DueDate     time.Time `json:"dueDate" bson:"dueDate"`

	Completed   bool       `json:"completed" bson:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`

	Extensions []DeadlineExtension `json:"extensions" bson:"extensions"`

	// Dependents lists the ids of deadlines whose trigger date derives from
	// this deadline's due date. Stored edges, declared at template-authoring
	// time, so extension propagation is a plain graph traversal.
	Dependents []string `json:"dependents" bson:"dependents"`
}

// DeadlineExtension records one granted extension of a deadline
type DeadlineExtension struct {
	AdditionalDays int       `json:"additionalDays" bson:"additionalDays"`
	Reason         string    `json:"reason" bson:"reason"`
	ActorID        string    `json:"actorID" bson:"actorID"`
	AppliedAt      time.Time `json:"appliedAt" bson:"appliedAt"`
}

// ClassifiedDeadline pairs a deadline with its computed alert level for
// timeline and reporting responses
type ClassifiedDeadline struct {
	Deadline
	AlertLevel AlertLevel `json:"alertLevel" bson:"-"`
}
