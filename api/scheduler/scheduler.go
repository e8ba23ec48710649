package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/integrityline/legal-process-api/databases"
	"github.com/integrityline/legal-process-api/models"
	"github.com/integrityline/legal-process-api/process"
)

// Overdue recommendations are re-notified only on an exact allow-list of
// day counts. This is a deliberate anti-spam business rule, not an
// approximation; keep it as-is.
var overdueNotifyDays = map[int]bool{1: true, 3: true, 7: true, 14: true}

const (
	sweepJobName     = "deadline_sweep_job"
	sweepLockTTL     = 15 * time.Minute
	sweepTimeout     = 10 * time.Minute
	defaultWorkers   = 8
	defaultCaseLimit = 30 * time.Second
)

// Sweeper runs the daily notification sweep across every tenant and every
// active case: deadlines approaching their due date and open
// recommendations get reminder notifications, de-duplicated per calendar
// day.
type Sweeper struct {
	cron       *cron.Cron
	CaseDB     databases.CaseDatabase
	RecDB      databases.RecommendationDatabase
	HolidayDB  databases.HolidayDatabase
	LogDB      databases.NotificationLogDatabase
	LockDB     databases.SchedulerLockDatabase
	Notifier   Notifier
	instanceID string

	// Now, Workers and CaseTimeout are swappable for tests.
	Now         func() time.Time
	Workers     int
	CaseTimeout time.Duration
}

// NewSweeper creates a new sweeper instance
func NewSweeper(
	caseDB databases.CaseDatabase,
	recDB databases.RecommendationDatabase,
	holidayDB databases.HolidayDatabase,
	logDB databases.NotificationLogDatabase,
	lockDB databases.SchedulerLockDatabase,
	notifier Notifier,
) *Sweeper {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Sweeper{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		CaseDB:      caseDB,
		RecDB:       recDB,
		HolidayDB:   holidayDB,
		LogDB:       logDB,
		LockDB:      lockDB,
		Notifier:    notifier,
		instanceID:  instanceID,
		Now:         time.Now,
		Workers:     defaultWorkers,
		CaseTimeout: defaultCaseLimit,
	}
}

// Start begins the scheduler with the daily sweep registered
func (s *Sweeper) Start() {
	// Sweep deadlines and recommendations daily at 6 AM UTC
	_, err := s.cron.AddFunc("0 6 * * *", s.RunDailySweep)
	if err != nil {
		zap.S().Errorw("failed to register daily sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Notification sweeper started")
}

// Stop gracefully stops the scheduler
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Notification sweeper stopped")
}

// RunDailySweep is the idempotent sweep entry point; safe to re-run after a
// crash because emission is de-duplicated per dedupe key per day.
func (s *Sweeper) RunDailySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, sweepJobName, s.instanceID, sweepLockTTL)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for sweep job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Sweep job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, sweepJobName, s.instanceID)

	zap.S().Infow("Running daily notification sweep", "instance", s.instanceID)

	// Holiday data is refreshed at sweep start. A load failure aborts the
	// whole run: better to skip a day's notifications than to compute
	// wrong business-day proximity.
	holidayRecords, err := s.HolidayDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("failed to load holiday table, aborting sweep run", "error", err)
		return
	}
	holidays := process.HolidaySetFrom(holidayRecords)
	today := s.Now()

	emitted := s.sweepCases(ctx, holidays, today)
	emitted += s.sweepRecommendations(ctx, today)

	zap.S().Infow("Daily notification sweep complete",
		"instance", s.instanceID,
		"notificationsEmitted", emitted,
	)
}

// sweepCases walks tenant by tenant and fans each tenant's active cases out
// over a bounded worker pool. Per-case evaluation is pure, so ordering
// across cases is irrelevant; one bad tenant or case degrades to a logged
// skip.
func (s *Sweeper) sweepCases(ctx context.Context, holidays process.HolidaySet, today time.Time) int {
	tenants, err := s.CaseDB.DistinctTenants(ctx, bson.M{"case.status": "active"})
	if err != nil {
		zap.S().Errorw("failed to list tenants for sweep", "error", err)
		return 0
	}

	emitted := 0
	for _, tenant := range tenants {
		cases, err := s.CaseDB.Find(ctx, bson.M{"case.tenantID": tenant, "case.status": "active"})
		if err != nil {
			zap.S().Errorw("failed to list active cases for sweep, skipping tenant", "tenant", tenant, "error", err)
			continue
		}
		emitted += s.sweepTenantCases(ctx, cases, holidays, today)
	}
	return emitted
}

func (s *Sweeper) sweepTenantCases(ctx context.Context, cases []models.Case, holidays process.HolidaySet, today time.Time) int {
	workers := s.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		emitted int
	)
	sem := make(chan struct{}, workers)

	for i := range cases {
		c := cases[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					zap.S().Errorw("panic sweeping case, skipping", "caseId", c.ID.Hex(), "panic", r)
				}
			}()

			caseCtx, cancel := context.WithTimeout(ctx, s.CaseTimeout)
			defer cancel()

			n, err := s.sweepCase(caseCtx, c, holidays, today)
			if err != nil {
				zap.S().Errorw("failed to sweep case, skipping", "caseId", c.ID.Hex(), "error", err)
			}
			mu.Lock()
			emitted += n
			mu.Unlock()
		}()
	}
	wg.Wait()
	return emitted
}

// sweepCase emits a reminder for every incomplete deadline due within the
// warning window (<= 3 business days, including overdue-today criticals).
func (s *Sweeper) sweepCase(ctx context.Context, c models.Case, holidays process.HolidaySet, today time.Time) (int, error) {
	emitted := 0
	for _, d := range c.Details.Deadlines {
		if d.Completed {
			continue
		}
		level := process.Classify(d, today, holidays)
		if level != models.AlertWarning && level != models.AlertCritical {
			continue
		}
		daysRemaining, err := process.CountDaysBetween(today, d.DueDate, models.BusinessDays, holidays)
		if err != nil {
			return emitted, err
		}

		req := models.NotificationRequest{
			TenantID:      c.Details.TenantID,
			CaseID:        c.ID.Hex(),
			RecipientRole: models.RoleCaseManager,
			Kind:          models.NotificationDeadlineReminder,
			Title:         d.Title,
			ThresholdDays: daysRemaining,
			DedupeKey:     fmt.Sprintf("%s:%s:%d", c.ID.Hex(), d.ID, daysRemaining),
		}
		sent, err := s.emit(ctx, req, today)
		if err != nil {
			return emitted, err
		}
		if sent {
			emitted++
		}
	}
	return emitted, nil
}

// sweepRecommendations applies the recommendation reminder rules: due-soon
// at exactly 3 or 1 calendar days, overdue only on the allow-listed day
// counts (1, 3, 7, 14 or any multiple of 14).
func (s *Sweeper) sweepRecommendations(ctx context.Context, today time.Time) int {
	recs, err := s.RecDB.Find(ctx, bson.M{
		"recommendation.status": bson.M{"$in": []string{models.RecommendationPending, models.RecommendationInProgress}},
	})
	if err != nil {
		zap.S().Errorw("failed to list open recommendations for sweep", "error", err)
		return 0
	}

	emitted := 0
	for _, rec := range recs {
		sent, err := s.sweepRecommendation(ctx, rec, today)
		if err != nil {
			zap.S().Errorw("failed to sweep recommendation, skipping", "recommendationId", rec.ID.Hex(), "error", err)
			continue
		}
		if sent {
			emitted++
		}
	}
	return emitted
}

func (s *Sweeper) sweepRecommendation(ctx context.Context, rec models.Recommendation, today time.Time) (bool, error) {
	if !rec.Details.Open() || rec.Details.DueDate == nil {
		return false, nil
	}

	daysUntilDue, err := process.CountDaysBetween(today, *rec.Details.DueDate, models.CalendarDays, nil)
	if err != nil {
		return false, err
	}

	var req models.NotificationRequest
	switch {
	case daysUntilDue == 3 || daysUntilDue == 1:
		req = models.NotificationRequest{
			TenantID:        rec.Details.TenantID,
			CaseID:          rec.Details.CaseID,
			RecipientRole:   models.RoleAssignee,
			RecipientUserID: rec.Details.AssignedUserID,
			Kind:            models.NotificationRecommendationDueSoon,
			Title:           rec.Details.Title,
			ThresholdDays:   daysUntilDue,
			DedupeKey:       fmt.Sprintf("rec:%s:due:%d", rec.ID.Hex(), daysUntilDue),
		}
	case daysUntilDue < 0:
		daysOverdue := -daysUntilDue
		if !overdueNotifyDays[daysOverdue] && daysOverdue%14 != 0 {
			return false, nil
		}
		req = models.NotificationRequest{
			TenantID:        rec.Details.TenantID,
			CaseID:          rec.Details.CaseID,
			RecipientRole:   models.RoleAssignee,
			RecipientUserID: rec.Details.AssignedUserID,
			Kind:            models.NotificationRecommendationOverdue,
			Title:           rec.Details.Title,
			ThresholdDays:   daysOverdue,
			DedupeKey:       fmt.Sprintf("rec:%s:overdue:%d", rec.ID.Hex(), daysOverdue),
		}
	default:
		return false, nil
	}

	return s.emit(ctx, req, today)
}

// emit delivers the request at most once per dedupe key per calendar day.
func (s *Sweeper) emit(ctx context.Context, req models.NotificationRequest, today time.Time) (bool, error) {
	day := today.Format("2006-01-02")
	already, err := s.LogDB.WasEmitted(ctx, req.DedupeKey, day)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	if err := s.Notifier.Notify(ctx, req); err != nil {
		return false, err
	}
	if err := s.LogDB.MarkEmitted(ctx, req.DedupeKey, day, s.Now()); err != nil {
		return false, err
	}
	return true, nil
}
