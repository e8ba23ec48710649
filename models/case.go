package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stage is a named phase of the legal investigation procedure.
type Stage string

// Main-sequence stages for the workplace-harassment procedure, in legal order,
// plus the subsanation side branch.
const (
	StageComplaintFiled            Stage = "complaint_filed"
	StageReception                 Stage = "reception"
	StageSubsanation               Stage = "subsanation"
	StagePrecautionaryMeasures     Stage = "precautionary_measures"
	StageDecisionToInvestigate     Stage = "decision_to_investigate"
	StageInvestigation             Stage = "investigation"
	StagePreliminaryReport         Stage = "preliminary_report"
	StagePreliminaryReportApproved Stage = "preliminary_report_approved"
	StageAuthorityNotification     Stage = "authority_notification"
	StageInvestigationClosed       Stage = "investigation_closed"
	StageFinalReport               Stage = "final_report"
	StageFormalSubmission          Stage = "formal_submission"
	StageAuthorityResolution       Stage = "authority_resolution"
	StageMeasuresAdoption          Stage = "measures_adoption"
	StageSanctions                 Stage = "sanctions"
	StageClosed                    Stage = "closed"
)

// Case-type markers. These annotate the case rather than replace the main
// stage path, so they live in stage facts, not in the stage graph.
const (
	CaseTypeMarkerThirdParty     = "third_party"
	CaseTypeMarkerSubcontracting = "subcontracting"
)

// Well-known stage fact keys. Facts act as deadline trigger anchors and as
// guard inputs.
const (
	FactReceivedDate           = "receivedDate"
	FactRequiresSubsanation    = "requiresSubsanation"
	FactSubsanationRequested   = "subsanationRequested"
	FactInformedRights         = "informedRights"
	FactInvestigationStartDate = "investigationStartDate"
	FactCaseTypeMarker         = "caseTypeMarker"
)

// Case holds the structure for the case collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case structure as defined
// in the case collection in mongo. Deadlines are owned exclusively by the
// case and have no existence outside it.
type CaseDetails struct {
	TenantID           string `json:"tenantID" bson:"tenantID"`
	Title              string `json:"title" bson:"title"`
	Status             string `json:"status" bson:"status"` // "active", "archived"
	IsLegallyRegulated bool   `json:"isLegallyRegulated" bson:"isLegallyRegulated"`

	CurrentStage Stage               `json:"currentStage" bson:"currentStage"`
	StageHistory []StageHistoryEntry `json:"stageHistory" bson:"stageHistory"`

	// StageFacts maps fact names to values, e.g. receivedDate,
	// requiresSubsanation, investigationStartDate.
	StageFacts map[string]interface{} `json:"stageFacts" bson:"stageFacts"`

	Deadlines  []Deadline  `json:"deadlines" bson:"deadlines"`
	Interviews []Interview `json:"interviews" bson:"interviews"`
	Measures   []Measure   `json:"measures" bson:"measures"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// StageHistoryEntry records one entry of the case's stage occupancy trail
type StageHistoryEntry struct {
	Stage     Stage     `json:"stage" bson:"stage"`
	EnteredAt time.Time `json:"enteredAt" bson:"enteredAt"`
	ActorID   string    `json:"actorID" bson:"actorID"`
	Notes     string    `json:"notes" bson:"notes"`
}

// Interview records a testimony taken during the investigation stage
type Interview struct {
	ID            string    `json:"id" bson:"id"`
	IntervieweeID string    `json:"intervieweeID" bson:"intervieweeID"`
	ConductedAt   time.Time `json:"conductedAt" bson:"conductedAt"`
	Signed        bool      `json:"signed" bson:"signed"`
}

// Measure is a corrective or precautionary measure adopted on the case
type Measure struct {
	ID          string `json:"id" bson:"id"`
	Description string `json:"description" bson:"description"`
	Status      string `json:"status" bson:"status"` // "proposed", "adopted", "implemented", "verified"
}

// MeasureImplemented reports whether the measure has been carried out
func (m Measure) MeasureImplemented() bool {
	return m.Status == "implemented" || m.Status == "verified"
}

// FactBool reads a boolean stage fact. ok is false when the fact is absent
// or not a bool, so guards can distinguish "unanswered" from "false".
func (d CaseDetails) FactBool(key string) (value, ok bool) {
	v, present := d.StageFacts[key]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// FactTime reads a time-valued stage fact, tolerating the types the mongo
// driver may decode a date into.
func (d CaseDetails) FactTime(key string) (time.Time, bool) {
	v, present := d.StageFacts[key]
	if !present {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
