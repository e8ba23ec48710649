package process_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/integrityline/legal-process-api/models"
	"github.com/integrityline/legal-process-api/process"
)

func newTestCase() *models.Case {
	return &models.Case{
		Details: models.CaseDetails{
			TenantID:           "tenant-1",
			Title:              "test case",
			Status:             "active",
			IsLegallyRegulated: true,
			CurrentStage:       models.StageComplaintFiled,
			StageFacts:         map[string]interface{}{},
		},
	}
}

func TestInstantiateStageDeadlines(t *testing.T) {
	c := newTestCase()

	created, err := process.InstantiateStageDeadlines(c, models.StageReception, monday, nil)
	assert.NoError(t, err)
	assert.Len(t, created, 1)

	d := created[0]
	assert.Equal(t, "receipt_acknowledgement", d.TemplateKey)
	assert.Equal(t, models.StageReception, d.Stage)
	assert.Equal(t, monday, d.TriggerDate)
	// Monday + 3 business days lands on Thursday
	assert.Equal(t, monday.AddDate(0, 0, 3), d.DueDate)
	assert.NotEmpty(t, d.ID)
}

func TestInstantiateStageDeadlinesIdempotence(t *testing.T) {
	c := newTestCase()

	_, err := process.InstantiateStageDeadlines(c, models.StageReception, monday, nil)
	assert.NoError(t, err)
	before := len(c.Details.Deadlines)

	_, err = process.InstantiateStageDeadlines(c, models.StageReception, monday, nil)
	assert.ErrorIs(t, err, process.ErrAlreadyInitialized)
	assert.Len(t, c.Details.Deadlines, before)
}

func TestInstantiateStageDeadlinesRejectsZeroTrigger(t *testing.T) {
	c := newTestCase()

	_, err := process.InstantiateStageDeadlines(c, models.StageReception, time.Time{}, nil)
	assert.ErrorIs(t, err, process.ErrInvalidDate)
}

func TestInstantiateStageDeadlinesAnchorsDependent(t *testing.T) {
	c := newTestCase()

	decision, err := process.InstantiateStageDeadlines(c, models.StageDecisionToInvestigate, monday, nil)
	assert.NoError(t, err)
	assert.Len(t, decision, 1)

	completion, err := process.InstantiateStageDeadlines(c, models.StageInvestigation, monday.AddDate(0, 0, 7), nil)
	assert.NoError(t, err)
	assert.Len(t, completion, 1)

	// The completion window is counted from the decision deadline's due
	// date, not from the stage entry date.
	assert.Equal(t, decision[0].DueDate, completion[0].TriggerDate)
	assert.Equal(t, []string{completion[0].ID}, c.Details.Deadlines[0].Dependents)
}

func TestAddCustomDeadline(t *testing.T) {
	c := newTestCase()

	d, err := process.AddCustomDeadline(c, process.CustomDeadlineInput{
		Title:       "internal review meeting",
		Stage:       models.StageInvestigation,
		TriggerDate: monday,
		DayUnit:     models.BusinessDays,
		Offset:      5,
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.StageTypeOptional, d.StageType)
	assert.Equal(t, monday.AddDate(0, 0, 7), d.DueDate)
	assert.Len(t, c.Details.Deadlines, 1)
}

func TestAddCustomDeadlineValidation(t *testing.T) {
	c := newTestCase()

	var vErr *process.ValidationError

	_, err := process.AddCustomDeadline(c, process.CustomDeadlineInput{
		Stage: models.StageInvestigation, TriggerDate: monday, DayUnit: models.BusinessDays,
	}, nil)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)

	_, err = process.AddCustomDeadline(c, process.CustomDeadlineInput{
		Title: "x", Stage: models.StageInvestigation, TriggerDate: monday, DayUnit: models.BusinessDays, Offset: -1,
	}, nil)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "offset", vErr.Field)

	_, err = process.AddCustomDeadline(c, process.CustomDeadlineInput{
		Title: "x", Stage: models.StageInvestigation, TriggerDate: monday, DayUnit: "fortnights",
	}, nil)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "dayUnit", vErr.Field)

	assert.Empty(t, c.Details.Deadlines)
}

func TestCompleteDeadlineIdempotence(t *testing.T) {
	c := newTestCase()
	created, err := process.InstantiateStageDeadlines(c, models.StageReception, monday, nil)
	assert.NoError(t, err)

	first := monday.AddDate(0, 0, 1)
	d, err := process.CompleteDeadline(c, created[0].ID, first)
	assert.NoError(t, err)
	assert.True(t, d.Completed)
	assert.Equal(t, first, *d.CompletedAt)

	// completing again keeps the original completion timestamp
	d, err = process.CompleteDeadline(c, created[0].ID, monday.AddDate(0, 0, 2))
	assert.NoError(t, err)
	assert.Equal(t, first, *d.CompletedAt)
}

func TestCompleteDeadlineNotFound(t *testing.T) {
	c := newTestCase()

	_, err := process.CompleteDeadline(c, "no-such-deadline", monday)
	assert.ErrorIs(t, err, process.ErrNotFound)
}

func TestExtendDeadlineAcrossWeekend(t *testing.T) {
	c := newTestCase()
	created, err := process.InstantiateStageDeadlines(c, models.StageReception, monday, nil)
	assert.NoError(t, err)

	// due Thursday; +2 business days crosses the weekend to Monday
	changed, err := process.ExtendDeadline(c, created[0].ID, 2, "complainant abroad", "actor-1", nil, monday)
	assert.NoError(t, err)
	assert.Len(t, changed, 1)
	assert.Equal(t, time.Monday, changed[0].DueDate.Weekday())
	assert.Equal(t, monday.AddDate(0, 0, 7), changed[0].DueDate)
	assert.Len(t, changed[0].Extensions, 1)
	assert.Equal(t, "complainant abroad", changed[0].Extensions[0].Reason)
}

func TestExtendDeadlineShiftsDependents(t *testing.T) {
	c := newTestCase()

	decision, err := process.InstantiateStageDeadlines(c, models.StageDecisionToInvestigate, monday, nil)
	assert.NoError(t, err)
	completion, err := process.InstantiateStageDeadlines(c, models.StageInvestigation, monday, nil)
	assert.NoError(t, err)

	oldCompletionDue := completion[0].DueDate

	changed, err := process.ExtendDeadline(c, decision[0].ID, 5, "pending legal opinion", "actor-1", nil, monday)
	assert.NoError(t, err)
	assert.Len(t, changed, 2)
	assert.Equal(t, decision[0].ID, changed[0].ID)
	assert.Equal(t, completion[0].ID, changed[1].ID)

	// the dependent moved by the same count under its own unit and was
	// re-anchored on the parent's new due date
	shifted, err := process.AddDays(oldCompletionDue, 5, changed[1].DayUnit, nil)
	assert.NoError(t, err)
	assert.Equal(t, shifted, changed[1].DueDate)
	assert.Equal(t, changed[0].DueDate, changed[1].TriggerDate)
}

func TestExtendDeadlineValidation(t *testing.T) {
	c := newTestCase()
	created, err := process.InstantiateStageDeadlines(c, models.StageReception, monday, nil)
	assert.NoError(t, err)

	var vErr *process.ValidationError

	_, err = process.ExtendDeadline(c, created[0].ID, 0, "reason", "actor-1", nil, monday)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "additionalDays", vErr.Field)

	_, err = process.ExtendDeadline(c, created[0].ID, 2, "", "actor-1", nil, monday)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "reason", vErr.Field)

	_, err = process.ExtendDeadline(c, "no-such-deadline", 2, "reason", "actor-1", nil, monday)
	assert.ErrorIs(t, err, process.ErrNotFound)
}

func TestClassify(t *testing.T) {
	due := func(n int) models.Deadline {
		d, err := process.AddDays(monday, n, models.BusinessDays, nil)
		assert.NoError(t, err)
		return models.Deadline{DueDate: d}
	}

	assert.Equal(t, models.AlertCritical, process.Classify(due(1), monday, nil))
	assert.Equal(t, models.AlertCritical, process.Classify(due(0), monday, nil))
	assert.Equal(t, models.AlertWarning, process.Classify(due(3), monday, nil))
	assert.Equal(t, models.AlertInfo, process.Classify(due(4), monday, nil))
	assert.Equal(t, models.AlertNormal, process.Classify(due(10), monday, nil))

	overdue := models.Deadline{DueDate: monday.AddDate(0, 0, -1)}
	assert.Equal(t, models.AlertOverdue, process.Classify(overdue, monday, nil))

	completed := models.Deadline{DueDate: monday.AddDate(0, 0, -1), Completed: true}
	assert.Equal(t, models.AlertCompleted, process.Classify(completed, monday, nil))
}

func TestValidateTemplates(t *testing.T) {
	assert.NoError(t, process.ValidateTemplates())
}
