package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/integrityline/legal-process-api/api/scheduler"
	"github.com/integrityline/legal-process-api/databases/mocks"
	"github.com/integrityline/legal-process-api/models"
)

// 2026-01-05 is a Monday.
var sweepDay = time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC)

// captureNotifier records every delivered request; safe for the sweep's
// worker pool.
type captureNotifier struct {
	mu   sync.Mutex
	reqs []models.NotificationRequest
}

func (n *captureNotifier) Notify(_ context.Context, req models.NotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reqs = append(n.reqs, req)
	return nil
}

func (n *captureNotifier) requests() []models.NotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.NotificationRequest{}, n.reqs...)
}

type sweepFixture struct {
	sweeper  *scheduler.Sweeper
	caseDB   *mocks.CaseDatabase
	recDB    *mocks.RecommendationDatabase
	holidays *mocks.HolidayDatabase
	logDB    *mocks.NotificationLogDatabase
	lockDB   *mocks.SchedulerLockDatabase
	notifier *captureNotifier
}

func newSweepFixture() *sweepFixture {
	f := &sweepFixture{
		caseDB:   &mocks.CaseDatabase{},
		recDB:    &mocks.RecommendationDatabase{},
		holidays: &mocks.HolidayDatabase{},
		logDB:    &mocks.NotificationLogDatabase{},
		lockDB:   &mocks.SchedulerLockDatabase{},
		notifier: &captureNotifier{},
	}
	f.sweeper = scheduler.NewSweeper(f.caseDB, f.recDB, f.holidays, f.logDB, f.lockDB, f.notifier)
	f.sweeper.Now = func() time.Time { return sweepDay }
	return f
}

func (f *sweepFixture) lockAcquired() {
	f.lockDB.On("TryAcquireLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.lockDB.On("ReleaseLock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func (f *sweepFixture) noDedupe() {
	f.logDB.On("WasEmitted", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.logDB.On("MarkEmitted", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func (f *sweepFixture) activeTenants(tenants ...string) {
	f.caseDB.On("DistinctTenants", mock.Anything, mock.Anything).Return(tenants, nil)
}

func activeCase(deadlines ...models.Deadline) models.Case {
	return models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			TenantID:  "tenant-1",
			Status:    "active",
			Deadlines: deadlines,
		},
	}
}

func openRecommendation(dueInDays int) models.Recommendation {
	due := sweepDay.AddDate(0, 0, dueInDays)
	return models.Recommendation{
		ID: primitive.NewObjectID(),
		Details: models.RecommendationDetails{
			TenantID:       "tenant-1",
			CaseID:         "case-1",
			Title:          "training plan",
			Status:         models.RecommendationPending,
			AssignedUserID: "user-1",
			DueDate:        &due,
		},
	}
}

func TestSweepEmitsDeadlineReminders(t *testing.T) {
	f := newSweepFixture()
	f.lockAcquired()
	f.noDedupe()
	f.holidays.On("Find", mock.Anything, mock.Anything).Return([]models.Holiday{}, nil)

	f.activeTenants("tenant-1")
	f.caseDB.On("Find", mock.Anything, mock.Anything).Return([]models.Case{
		activeCase(
			// due in 2 business days: warning, reminded
			models.Deadline{ID: "d-warn", Title: "ack receipt", DueDate: sweepDay.AddDate(0, 0, 2)},
			// due in 10 business days: normal, silent
			models.Deadline{ID: "d-far", Title: "final report", DueDate: sweepDay.AddDate(0, 0, 14)},
			// completed deadlines never remind
			models.Deadline{ID: "d-done", Title: "done", DueDate: sweepDay, Completed: true},
		),
	}, nil)
	f.recDB.On("Find", mock.Anything, mock.Anything).Return([]models.Recommendation{}, nil)

	f.sweeper.RunDailySweep()

	reqs := f.notifier.requests()
	assert.Len(t, reqs, 1)
	assert.Equal(t, models.NotificationDeadlineReminder, reqs[0].Kind)
	assert.Equal(t, "ack receipt", reqs[0].Title)
	assert.Equal(t, 2, reqs[0].ThresholdDays)
	assert.Equal(t, models.RoleCaseManager, reqs[0].RecipientRole)
}

func TestSweepRecommendationDueSoon(t *testing.T) {
	f := newSweepFixture()
	f.lockAcquired()
	f.noDedupe()
	f.holidays.On("Find", mock.Anything, mock.Anything).Return([]models.Holiday{}, nil)
	f.activeTenants()

	f.recDB.On("Find", mock.Anything, mock.Anything).Return([]models.Recommendation{
		openRecommendation(3), // reminded
		openRecommendation(2), // silent
		openRecommendation(1), // reminded
		openRecommendation(5), // silent
	}, nil)

	f.sweeper.RunDailySweep()

	reqs := f.notifier.requests()
	assert.Len(t, reqs, 2)
	assert.Equal(t, models.NotificationRecommendationDueSoon, reqs[0].Kind)
	assert.Equal(t, 3, reqs[0].ThresholdDays)
	assert.Equal(t, 1, reqs[1].ThresholdDays)
	assert.Equal(t, "user-1", reqs[0].RecipientUserID)
}

func TestSweepRecommendationOverdueAllowList(t *testing.T) {
	f := newSweepFixture()
	f.lockAcquired()
	f.noDedupe()
	f.holidays.On("Find", mock.Anything, mock.Anything).Return([]models.Holiday{}, nil)
	f.activeTenants()

	f.recDB.On("Find", mock.Anything, mock.Anything).Return([]models.Recommendation{
		openRecommendation(-2),  // silent: not on the allow-list
		openRecommendation(-7),  // reminded once
		openRecommendation(-28), // reminded once: multiple of 14
		openRecommendation(-9),  // silent
	}, nil)

	f.sweeper.RunDailySweep()

	reqs := f.notifier.requests()
	assert.Len(t, reqs, 2)
	assert.Equal(t, models.NotificationRecommendationOverdue, reqs[0].Kind)
	assert.Equal(t, 7, reqs[0].ThresholdDays)
	assert.Equal(t, 28, reqs[1].ThresholdDays)
}

func TestSweepDedupesPerDay(t *testing.T) {
	f := newSweepFixture()
	f.lockAcquired()
	f.holidays.On("Find", mock.Anything, mock.Anything).Return([]models.Holiday{}, nil)
	f.activeTenants("tenant-1")
	f.caseDB.On("Find", mock.Anything, mock.Anything).Return([]models.Case{
		activeCase(models.Deadline{ID: "d-1", Title: "ack receipt", DueDate: sweepDay.AddDate(0, 0, 2)}),
	}, nil)
	f.recDB.On("Find", mock.Anything, mock.Anything).Return([]models.Recommendation{}, nil)

	// already emitted earlier today under the same dedupe key
	f.logDB.On("WasEmitted", mock.Anything, mock.Anything, "2026-01-05").Return(true, nil)

	f.sweeper.RunDailySweep()

	assert.Empty(t, f.notifier.requests())
	f.logDB.AssertNotCalled(t, "MarkEmitted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepAbortsWhenHolidayLoadFails(t *testing.T) {
	f := newSweepFixture()
	f.lockAcquired()
	f.holidays.On("Find", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	f.sweeper.RunDailySweep()

	assert.Empty(t, f.notifier.requests())
	f.caseDB.AssertNotCalled(t, "DistinctTenants", mock.Anything, mock.Anything)
	f.caseDB.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	f.recDB.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestSweepSkipsWhenLockHeldElsewhere(t *testing.T) {
	f := newSweepFixture()
	f.lockDB.On("TryAcquireLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	f.sweeper.RunDailySweep()

	f.holidays.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	f.lockDB.AssertNotCalled(t, "ReleaseLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepUsesBusinessDayProximity(t *testing.T) {
	f := newSweepFixture()
	f.lockAcquired()
	f.noDedupe()
	// Tuesday and Wednesday declared holidays: a deadline due Thursday is
	// then only 1 business day away and escalates to critical.
	f.holidays.On("Find", mock.Anything, mock.Anything).Return([]models.Holiday{
		{Date: sweepDay.AddDate(0, 0, 1), Name: "feriado", Jurisdiction: "CL"},
		{Date: sweepDay.AddDate(0, 0, 2), Name: "feriado", Jurisdiction: "CL"},
	}, nil)

	f.activeTenants("tenant-1")
	f.caseDB.On("Find", mock.Anything, mock.Anything).Return([]models.Case{
		activeCase(models.Deadline{ID: "d-1", Title: "ack receipt", DueDate: sweepDay.AddDate(0, 0, 3)}),
	}, nil)
	f.recDB.On("Find", mock.Anything, mock.Anything).Return([]models.Recommendation{}, nil)

	f.sweeper.RunDailySweep()

	reqs := f.notifier.requests()
	assert.Len(t, reqs, 1)
	assert.Equal(t, 1, reqs[0].ThresholdDays)
}

func TestSweepWalksEveryTenant(t *testing.T) {
	f := newSweepFixture()
	f.lockAcquired()
	f.noDedupe()
	f.holidays.On("Find", mock.Anything, mock.Anything).Return([]models.Holiday{}, nil)

	f.activeTenants("tenant-1", "tenant-2")
	f.caseDB.On("Find", mock.Anything, bson.M{"case.tenantID": "tenant-1", "case.status": "active"}).Return([]models.Case{
		activeCase(models.Deadline{ID: "d-1", Title: "ack receipt", DueDate: sweepDay.AddDate(0, 0, 2)}),
	}, nil)
	f.caseDB.On("Find", mock.Anything, bson.M{"case.tenantID": "tenant-2", "case.status": "active"}).Return([]models.Case{
		activeCase(models.Deadline{ID: "d-2", Title: "final report", DueDate: sweepDay.AddDate(0, 0, 1)}),
	}, nil)
	f.recDB.On("Find", mock.Anything, mock.Anything).Return([]models.Recommendation{}, nil)

	f.sweeper.RunDailySweep()

	assert.Len(t, f.notifier.requests(), 2)
	f.caseDB.AssertCalled(t, "Find", mock.Anything, bson.M{"case.tenantID": "tenant-1", "case.status": "active"})
	f.caseDB.AssertCalled(t, "Find", mock.Anything, bson.M{"case.tenantID": "tenant-2", "case.status": "active"})
}
