package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/integrityline/legal-process-api/databases/mocks"
	"github.com/integrityline/legal-process-api/models"
	"github.com/integrityline/legal-process-api/process"
)

// 2026-01-05 is a Monday.
var testMonday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func newTestCaseProcess(t *testing.T) (CaseProcess, *mocks.CaseDatabase, *mocks.ActivityDatabase, *mocks.HolidayDatabase) {
	caseDB := &mocks.CaseDatabase{}
	activityDB := &mocks.ActivityDatabase{}
	holidayDB := &mocks.HolidayDatabase{}

	controller, err := process.NewController(caseDB, activityDB, holidayDB)
	assert.NoError(t, err)
	controller.Now = func() time.Time { return testMonday }

	return CaseProcess{Controller: controller, DB: caseDB, ADB: activityDB}, caseDB, activityDB, holidayDB
}

func regulatedCase() *models.Case {
	return &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			TenantID:           "tenant-1",
			Title:              "harassment complaint",
			Status:             "active",
			IsLegallyRegulated: true,
			CurrentStage:       models.StageComplaintFiled,
			StageFacts: map[string]interface{}{
				models.FactReceivedDate: testMonday,
			},
		},
	}
}

func TestCreateCaseHandler(t *testing.T) {
	cp, caseDB, activityDB, _ := newTestCaseProcess(t)

	caseDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	activityDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	body := bytes.NewBufferString(`{"title":"harassment complaint","isLegallyRegulated":true,"receivedDate":"2026-01-05T00:00:00Z","actorID":"actor-1"}`)
	req := httptest.NewRequest("POST", "/api/v1/tenant/tenant-1/case", body)
	req = mux.SetURLVars(req, map[string]string{"tenant_id": "tenant-1"})
	rr := httptest.NewRecorder()

	cp.CreateCaseHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "complaint_filed")
	assert.Contains(t, rr.Body.String(), "harassment complaint")
}

func TestCreateCaseHandlerBadBody(t *testing.T) {
	cp, _, _, _ := newTestCaseProcess(t)

	req := httptest.NewRequest("POST", "/api/v1/tenant/tenant-1/case", bytes.NewBufferString("{not json"))
	req = mux.SetURLVars(req, map[string]string{"tenant_id": "tenant-1"})
	rr := httptest.NewRecorder()

	cp.CreateCaseHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateCaseHandlerMissingTitle(t *testing.T) {
	cp, _, _, _ := newTestCaseProcess(t)

	body := bytes.NewBufferString(`{"receivedDate":"2026-01-05T00:00:00Z"}`)
	req := httptest.NewRequest("POST", "/api/v1/tenant/tenant-1/case", body)
	req = mux.SetURLVars(req, map[string]string{"tenant_id": "tenant-1"})
	rr := httptest.NewRecorder()

	cp.CreateCaseHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdvanceStageHandlerIllegalTransition(t *testing.T) {
	cp, caseDB, _, _ := newTestCaseProcess(t)
	c := regulatedCase()

	caseDB.On("FindOne", mock.Anything, mock.Anything).Return(c, nil)

	body := bytes.NewBufferString(`{"targetStage":"investigation","actorID":"actor-1"}`)
	req := httptest.NewRequest("POST", "/api/v1/tenant/tenant-1/case/"+c.ID.Hex()+"/stage", body)
	req = mux.SetURLVars(req, map[string]string{"tenant_id": "tenant-1", "case_id": c.ID.Hex()})
	rr := httptest.NewRecorder()

	cp.AdvanceStageHandler(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestAdvanceStageHandlerStaleCase(t *testing.T) {
	cp, caseDB, activityDB, holidayDB := newTestCaseProcess(t)
	c := regulatedCase()

	caseDB.On("FindOne", mock.Anything, mock.Anything).Return(c, nil)
	caseDB.On("Replace", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	activityDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	holidayDB.On("Find", mock.Anything, mock.Anything).Return([]models.Holiday{}, nil)

	body := bytes.NewBufferString(`{"targetStage":"reception","actorID":"actor-1"}`)
	req := httptest.NewRequest("POST", "/api/v1/tenant/tenant-1/case/"+c.ID.Hex()+"/stage", body)
	req = mux.SetURLVars(req, map[string]string{"tenant_id": "tenant-1", "case_id": c.ID.Hex()})
	rr := httptest.NewRecorder()

	cp.AdvanceStageHandler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAdvanceStageHandlerSuccess(t *testing.T) {
	cp, caseDB, activityDB, holidayDB := newTestCaseProcess(t)
	c := regulatedCase()

	caseDB.On("FindOne", mock.Anything, mock.Anything).Return(c, nil)
	caseDB.On("Replace", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	activityDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	holidayDB.On("Find", mock.Anything, mock.Anything).Return([]models.Holiday{}, nil)

	body := bytes.NewBufferString(`{"targetStage":"reception","actorID":"actor-1"}`)
	req := httptest.NewRequest("POST", "/api/v1/tenant/tenant-1/case/"+c.ID.Hex()+"/stage", body)
	req = mux.SetURLVars(req, map[string]string{"tenant_id": "tenant-1", "case_id": c.ID.Hex()})
	rr := httptest.NewRecorder()

	cp.AdvanceStageHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"currentStage":"reception"`)
	assert.Contains(t, rr.Body.String(), "receipt_acknowledgement")
}

func TestCaseByIDHandlerInvalidID(t *testing.T) {
	cp, _, _, _ := newTestCaseProcess(t)

	req := httptest.NewRequest("GET", "/api/v1/tenant/tenant-1/case/not-a-hex-id", nil)
	req = mux.SetURLVars(req, map[string]string{"tenant_id": "tenant-1", "case_id": "not-a-hex-id"})
	rr := httptest.NewRecorder()

	cp.CaseByIDHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExtendDeadlineHandlerValidation(t *testing.T) {
	cp, caseDB, _, holidayDB := newTestCaseProcess(t)
	c := regulatedCase()
	c.Details.Deadlines = []models.Deadline{
		{ID: "d-1", Title: "ack receipt", DayUnit: models.BusinessDays, DueDate: testMonday.AddDate(0, 0, 3)},
	}

	caseDB.On("FindOne", mock.Anything, mock.Anything).Return(c, nil)
	holidayDB.On("Find", mock.Anything, mock.Anything).Return([]models.Holiday{}, nil)

	// missing reason
	body := bytes.NewBufferString(`{"additionalDays":2,"actorID":"actor-1"}`)
	req := httptest.NewRequest("PUT", "/api/v1/tenant/tenant-1/case/"+c.ID.Hex()+"/deadline/d-1/extend", body)
	req = mux.SetURLVars(req, map[string]string{"tenant_id": "tenant-1", "case_id": c.ID.Hex(), "deadline_id": "d-1"})
	rr := httptest.NewRecorder()

	cp.ExtendDeadlineHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCompleteDeadlineHandlerNotFound(t *testing.T) {
	cp, caseDB, _, _ := newTestCaseProcess(t)
	c := regulatedCase()

	caseDB.On("FindOne", mock.Anything, mock.Anything).Return(c, nil)

	body := bytes.NewBufferString(`{"actorID":"actor-1"}`)
	req := httptest.NewRequest("PUT", "/api/v1/tenant/tenant-1/case/"+c.ID.Hex()+"/deadline/missing/complete", body)
	req = mux.SetURLVars(req, map[string]string{"tenant_id": "tenant-1", "case_id": c.ID.Hex(), "deadline_id": "missing"})
	rr := httptest.NewRecorder()

	cp.CompleteDeadlineHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
