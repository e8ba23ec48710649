package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/integrityline/legal-process-api/api"
	"github.com/integrityline/legal-process-api/config"
	"github.com/integrityline/legal-process-api/databases"
	"github.com/integrityline/legal-process-api/models"
	"github.com/integrityline/legal-process-api/process"
)

// CaseProcess exported for testing purposes
type CaseProcess struct {
	Controller *process.Controller
	DB         databases.CaseDatabase
	ADB        databases.ActivityDatabase
}

// writeProcessError maps engine error kinds to HTTP statuses. All engine
// errors are recoverable and surfaced verbatim to the operator.
func writeProcessError(message string, w http.ResponseWriter, err error) {
	var (
		validationErr   *process.ValidationError
		transitionErr   *process.IllegalTransitionError
		preconditionErr *process.PreconditionNotMetError
	)
	switch {
	case errors.Is(err, process.ErrNotFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.Is(err, process.ErrStaleCase):
		config.ErrorStatus(message, http.StatusConflict, w, err)
	case errors.Is(err, process.ErrAlreadyInitialized):
		config.ErrorStatus(message, http.StatusConflict, w, err)
	case errors.As(err, &preconditionErr), errors.As(err, &transitionErr):
		config.ErrorStatus(message, http.StatusUnprocessableEntity, w, err)
	case errors.As(err, &validationErr),
		errors.Is(err, process.ErrInvalidArgument),
		errors.Is(err, process.ErrInvalidDate):
		config.ErrorStatus(message, http.StatusBadRequest, w, err)
	default:
		config.ErrorStatus(message, http.StatusInternalServerError, w, err)
	}
}

// CreateCaseHandler registers a new investigation case for the tenant
func (cp CaseProcess) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant_id"]

	var body struct {
		Title              string    `json:"title"`
		IsLegallyRegulated bool      `json:"isLegallyRegulated"`
		ReceivedDate       time.Time `json:"receivedDate"`
		ActorID            string    `json:"actorID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := cp.Controller.CreateCase(ctx, process.NewCaseInput{
		TenantID:           tenantID,
		Title:              body.Title,
		IsLegallyRegulated: body.IsLegallyRegulated,
		ReceivedDate:       body.ReceivedDate,
		ActorID:            body.ActorID,
	})
	if err != nil {
		writeProcessError("failed to create case", w, err)
		return
	}

	b, err := json.Marshal(created)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CaseByIDHandler returns a case by ID
func (cp CaseProcess) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant_id"]
	caseID := mux.Vars(r)["case_id"]

	zap.S().Debugf("case_id: %v", caseID)

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := cp.DB.FindOne(ctx, bson.M{"_id": cID, "case.tenantID": tenantID})
	if err != nil {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CasesByTenantHandler returns all cases for a tenant
func (cp CaseProcess) CasesByTenantHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.M{"_id": -1})
	dbResp, err := cp.DB.Find(ctx, bson.M{"case.tenantID": tenantID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get cases", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// TimelineHandler returns the stage history and classified deadlines of a case
func (cp CaseProcess) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant_id"]
	caseID := mux.Vars(r)["case_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	timeline, err := cp.Controller.GetTimeline(ctx, tenantID, caseID)
	if err != nil {
		writeProcessError("failed to build case timeline", w, err)
		return
	}

	b, err := json.Marshal(timeline)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AdvanceStageHandler applies a stage transition to a case
func (cp CaseProcess) AdvanceStageHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant_id"]
	caseID := mux.Vars(r)["case_id"]

	var body struct {
		TargetStage models.Stage `json:"targetStage"`
		ActorID     string       `json:"actorID"`
		Notes       string       `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := cp.Controller.AdvanceStage(ctx, tenantID, caseID, body.TargetStage, body.ActorID, body.Notes)
	if err != nil {
		writeProcessError("failed to advance case stage", w, err)
		return
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AddDeadlineHandler appends a manually authored deadline to a case
func (cp CaseProcess) AddDeadlineHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant_id"]
	caseID := mux.Vars(r)["case_id"]

	var body struct {
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Stage       models.Stage     `json:"stage"`
		StageType   models.StageType `json:"stageType"`
		LegalBasis  string           `json:"legalBasis"`
		TriggerDate time.Time        `json:"triggerDate"`
		DayUnit     models.DayUnit   `json:"dayUnit"`
		Offset      int              `json:"offset"`
		ActorID     string           `json:"actorID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := cp.Controller.AddCustomDeadline(ctx, tenantID, caseID, process.CustomDeadlineInput{
		Title:       body.Title,
		Description: body.Description,
		Stage:       body.Stage,
		StageType:   body.StageType,
		LegalBasis:  body.LegalBasis,
		TriggerDate: body.TriggerDate,
		DayUnit:     body.DayUnit,
		Offset:      body.Offset,
	}, body.ActorID)
	if err != nil {
		writeProcessError("failed to add custom deadline", w, err)
		return
	}

	b, err := json.Marshal(created)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CompleteDeadlineHandler marks a deadline completed
func (cp CaseProcess) CompleteDeadlineHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant_id"]
	caseID := mux.Vars(r)["case_id"]
	deadlineID := mux.Vars(r)["deadline_id"]

	var body struct {
		ActorID string `json:"actorID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	completed, err := cp.Controller.CompleteDeadline(ctx, tenantID, caseID, deadlineID, body.ActorID)
	if err != nil {
		writeProcessError("failed to complete deadline", w, err)
		return
	}

	b, err := json.Marshal(completed)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ExtendDeadlineHandler grants an extension and returns every deadline that moved
func (cp CaseProcess) ExtendDeadlineHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant_id"]
	caseID := mux.Vars(r)["case_id"]
	deadlineID := mux.Vars(r)["deadline_id"]

	var body struct {
		AdditionalDays int    `json:"additionalDays"`
		Reason         string `json:"reason"`
		ActorID        string `json:"actorID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	changed, err := cp.Controller.ExtendDeadline(ctx, tenantID, caseID, deadlineID, body.AdditionalDays, body.Reason, body.ActorID)
	if err != nil {
		writeProcessError("failed to extend deadline", w, err)
		return
	}

	b, err := json.Marshal(changed)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ActivitiesByCaseHandler returns the append-only audit trail for a case
func (cp CaseProcess) ActivitiesByCaseHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant_id"]
	caseID := mux.Vars(r)["case_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.M{"activity.timestamp": 1})
	dbResp, err := cp.ADB.Find(ctx, bson.M{
		"activity.tenantID": tenantID,
		"activity.caseID":   caseID,
	}, opts)
	if err != nil {
		config.ErrorStatus("failed to get case activities", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Activity{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
