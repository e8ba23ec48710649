package process

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/integrityline/legal-process-api/databases"
	"github.com/integrityline/legal-process-api/models"
)

// Controller is the single façade callers use to mutate and query a case's
// legal process. Each mutating call loads the case, applies the pure engine
// operations, and persists through a version-checked replace, so concurrent
// writers on the same case are serialized: the loser of a race gets
// ErrStaleCase and retries. Cases are independent units of work; there is
// no cross-case coordination.
type Controller struct {
	Cases      databases.CaseDatabase
	Activities databases.ActivityDatabase
	Holidays   databases.HolidayDatabase

	// Now is swappable for tests.
	Now func() time.Time
}

// NewController validates the deadline template table and returns a
// controller. A cyclic template dependency fails construction, never a
// runtime extension.
func NewController(cases databases.CaseDatabase, activities databases.ActivityDatabase, holidays databases.HolidayDatabase) (*Controller, error) {
	if err := ValidateTemplates(); err != nil {
		return nil, err
	}
	return &Controller{
		Cases:      cases,
		Activities: activities,
		Holidays:   holidays,
		Now:        time.Now,
	}, nil
}

// NewCaseInput is the intake payload for a new investigation case.
type NewCaseInput struct {
	TenantID           string
	Title              string
	IsLegallyRegulated bool
	ReceivedDate       time.Time
	ActorID            string
}

// CreateCase registers a case at the complaint_filed stage with the history
// seeded and the reception date recorded as a stage fact.
func (pc *Controller) CreateCase(ctx context.Context, in NewCaseInput) (*models.Case, error) {
	if in.TenantID == "" {
		return nil, &ValidationError{Field: "tenantID", Reason: "must not be empty"}
	}
	if in.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if in.ReceivedDate.IsZero() {
		return nil, fmt.Errorf("create case: %w", ErrInvalidDate)
	}

	now := pc.Now()
	c := &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			TenantID:           in.TenantID,
			Title:              in.Title,
			Status:             "active",
			IsLegallyRegulated: in.IsLegallyRegulated,
			CurrentStage:       models.StageComplaintFiled,
			StageHistory: []models.StageHistoryEntry{
				{Stage: models.StageComplaintFiled, EnteredAt: now, ActorID: in.ActorID, Notes: "complaint filed"},
			},
			StageFacts: map[string]interface{}{
				models.FactReceivedDate: in.ReceivedDate,
			},
			Deadlines:  []models.Deadline{},
			Interviews: []models.Interview{},
			Measures:   []models.Measure{},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Version: 0,
	}

	if _, err := pc.Cases.InsertOne(ctx, c); err != nil {
		return nil, err
	}
	if err := pc.recordActivity(ctx, c, in.ActorID, models.ActivityCaseCreated, fmt.Sprintf("case %q created", in.Title)); err != nil {
		return nil, err
	}
	return c, nil
}

// AdvanceStage validates and applies a stage transition, instantiates the
// entered stage's deadline templates for legally regulated cases, and
// persists case plus audit record.
func (pc *Controller) AdvanceStage(ctx context.Context, tenantID, caseID string, target models.Stage, actorID, notes string) (*models.Case, error) {
	if !IsKnownStage(target) {
		return nil, &ValidationError{Field: "targetStage", Reason: fmt.Sprintf("unknown stage %q", target)}
	}

	c, err := pc.loadCase(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}
	from := c.Details.CurrentStage
	if from == target {
		// Re-submitting the current stage is a no-op, not an error.
		return c, nil
	}

	now := pc.Now()
	if err := Transition(c, target, actorID, notes, now); err != nil {
		return nil, err
	}

	instantiated := 0
	if c.Details.IsLegallyRegulated && len(StageTemplates(target)) > 0 {
		holidays, err := pc.holidaySet(ctx)
		if err != nil {
			return nil, err
		}
		trigger := pc.stageTrigger(c, target, now)
		created, err := InstantiateStageDeadlines(c, target, trigger, holidays)
		switch {
		case errors.Is(err, ErrAlreadyInitialized):
			// Deadlines for this stage were created earlier (e.g. added
			// manually); the guard keeps re-entry from duplicating them.
		case err != nil:
			return nil, err
		default:
			instantiated = len(created)
		}
	}

	c.Details.UpdatedAt = now
	if err := pc.saveCase(ctx, c); err != nil {
		return nil, err
	}

	// Audit entries follow a successful save, so a lost version race never
	// leaves records for state that was not persisted.
	if instantiated > 0 {
		if err := pc.recordActivity(ctx, c, actorID, models.ActivityDeadlineCreated,
			fmt.Sprintf("%d deadline(s) instantiated on entering stage %q", instantiated, target)); err != nil {
			return nil, err
		}
	}
	if err := pc.recordActivity(ctx, c, actorID, models.ActivityStageTransition,
		fmt.Sprintf("stage advanced from %q to %q", from, target)); err != nil {
		return nil, err
	}
	return c, nil
}

// CompleteDeadline marks a deadline completed. Completing an already
// completed deadline succeeds without writing anything.
func (pc *Controller) CompleteDeadline(ctx context.Context, tenantID, caseID, deadlineID, actorID string) (*models.Deadline, error) {
	c, err := pc.loadCase(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}

	i := deadlineIndex(c, deadlineID)
	if i >= 0 && c.Details.Deadlines[i].Completed {
		d := c.Details.Deadlines[i]
		return &d, nil
	}

	now := pc.Now()
	d, err := CompleteDeadline(c, deadlineID, now)
	if err != nil {
		return nil, err
	}

	c.Details.UpdatedAt = now
	if err := pc.saveCase(ctx, c); err != nil {
		return nil, err
	}
	if err := pc.recordActivity(ctx, c, actorID, models.ActivityDeadlineCompleted,
		fmt.Sprintf("deadline %q completed", d.Title)); err != nil {
		return nil, err
	}
	result := *d
	return &result, nil
}

// ExtendDeadline grants an extension and shifts every transitive dependent,
// returning all deadlines that changed, target first.
func (pc *Controller) ExtendDeadline(ctx context.Context, tenantID, caseID, deadlineID string, additionalDays int, reason, actorID string) ([]models.Deadline, error) {
	c, err := pc.loadCase(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}

	holidays, err := pc.holidaySet(ctx)
	if err != nil {
		return nil, err
	}
	now := pc.Now()
	changed, err := ExtendDeadline(c, deadlineID, additionalDays, reason, actorID, holidays, now)
	if err != nil {
		return nil, err
	}

	c.Details.UpdatedAt = now
	if err := pc.saveCase(ctx, c); err != nil {
		return nil, err
	}
	if err := pc.recordActivity(ctx, c, actorID, models.ActivityDeadlineExtended,
		fmt.Sprintf("deadline %q extended by %d day(s): %s", changed[0].Title, additionalDays, reason)); err != nil {
		return nil, err
	}
	return changed, nil
}

// AddCustomDeadline appends a manually authored deadline to the case.
func (pc *Controller) AddCustomDeadline(ctx context.Context, tenantID, caseID string, in CustomDeadlineInput, actorID string) (*models.Deadline, error) {
	c, err := pc.loadCase(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}

	holidays, err := pc.holidaySet(ctx)
	if err != nil {
		return nil, err
	}
	d, err := AddCustomDeadline(c, in, holidays)
	if err != nil {
		return nil, err
	}

	c.Details.UpdatedAt = pc.Now()
	if err := pc.saveCase(ctx, c); err != nil {
		return nil, err
	}
	if err := pc.recordActivity(ctx, c, actorID, models.ActivityDeadlineCreated,
		fmt.Sprintf("custom deadline %q added", d.Title)); err != nil {
		return nil, err
	}
	result := *d
	return &result, nil
}

// StageDeadlines groups a stage's classified deadlines for the timeline.
type StageDeadlines struct {
	Stage     models.Stage                `json:"stage"`
	Deadlines []models.ClassifiedDeadline `json:"deadlines"`
}

// Timeline is the stage history plus the classified deadlines grouped by
// stage in procedure order, due-date ascending within each stage.
type Timeline struct {
	CaseID       string                     `json:"caseID"`
	CurrentStage models.Stage               `json:"currentStage"`
	History      []models.StageHistoryEntry `json:"history"`
	Stages       []StageDeadlines           `json:"stages"`
	Blocking     []string                   `json:"blocking"`
}

// GetTimeline builds the timeline view of a case as of now.
func (pc *Controller) GetTimeline(ctx context.Context, tenantID, caseID string) (*Timeline, error) {
	c, err := pc.loadCase(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}

	holidays, err := pc.holidaySet(ctx)
	if err != nil {
		// The timeline only uses holidays to classify proximity, so a read
		// keeps working on weekend-only skipping while the table is down.
		zap.S().Warnw("holiday table unavailable, classifying without holidays", "error", err, "caseId", c.ID.Hex())
		holidays = NewHolidaySet()
	}
	today := pc.Now()

	byStage := make(map[models.Stage][]models.ClassifiedDeadline)
	for _, d := range c.Details.Deadlines {
		byStage[d.Stage] = append(byStage[d.Stage], models.ClassifiedDeadline{
			Deadline:   d,
			AlertLevel: Classify(d, today, holidays),
		})
	}

	order := append([]models.Stage{}, mainSequence...)
	order = append(order, models.StageSubsanation)
	stages := make([]StageDeadlines, 0, len(byStage))
	for _, stage := range order {
		group, ok := byStage[stage]
		if !ok {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].DueDate.Before(group[j].DueDate)
		})
		stages = append(stages, StageDeadlines{Stage: stage, Deadlines: group})
	}

	return &Timeline{
		CaseID:       c.ID.Hex(),
		CurrentStage: c.Details.CurrentStage,
		History:      c.Details.StageHistory,
		Stages:       stages,
		Blocking:     MissingPreconditions(c),
	}, nil
}

// stageTrigger picks the deadline anchor for an entered stage: recorded
// stage facts win over the transition timestamp.
func (pc *Controller) stageTrigger(c *models.Case, stage models.Stage, now time.Time) time.Time {
	switch stage {
	case models.StageReception:
		if t, ok := c.Details.FactTime(models.FactReceivedDate); ok {
			return t
		}
	case models.StageInvestigation:
		if t, ok := c.Details.FactTime(models.FactInvestigationStartDate); ok {
			return t
		}
	}
	return now
}

func (pc *Controller) loadCase(ctx context.Context, tenantID, caseID string) (*models.Case, error) {
	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, fmt.Errorf("case id %q: %w", caseID, ErrInvalidArgument)
	}
	c, err := pc.Cases.FindOne(ctx, bson.M{"_id": oid, "case.tenantID": tenantID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("case %q: %w", caseID, ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

// saveCase replaces the case document filtered on the loaded version and
// bumps it, so two writers racing on the same case cannot interleave
// partial updates.
func (pc *Controller) saveCase(ctx context.Context, c *models.Case) error {
	loadedVersion := c.Version
	c.Version++
	matched, err := pc.Cases.Replace(ctx, bson.M{"_id": c.ID, "__v": loadedVersion}, c)
	if err != nil {
		c.Version = loadedVersion
		return err
	}
	if matched == 0 {
		c.Version = loadedVersion
		return fmt.Errorf("case %s: %w", c.ID.Hex(), ErrStaleCase)
	}
	return nil
}

// holidaySet loads the holiday table. Mutating paths must not compute due
// dates against a silently empty set, so the load error propagates.
func (pc *Controller) holidaySet(ctx context.Context) (HolidaySet, error) {
	records, err := pc.Holidays.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load holiday table: %w", err)
	}
	return HolidaySetFrom(records), nil
}

func (pc *Controller) recordActivity(ctx context.Context, c *models.Case, actorID, kind, description string) error {
	activity := models.Activity{
		ID: primitive.NewObjectID(),
		Details: models.ActivityDetails{
			TenantID:    c.Details.TenantID,
			CaseID:      c.ID.Hex(),
			Timestamp:   pc.Now(),
			ActorID:     actorID,
			Kind:        kind,
			Description: description,
		},
	}
	if _, err := pc.Activities.InsertOne(ctx, activity); err != nil {
		return fmt.Errorf("record %s activity for case %s: %w", kind, c.ID.Hex(), err)
	}
	return nil
}
