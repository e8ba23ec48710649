package process

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/integrityline/legal-process-api/models"
)

// InstantiateStageDeadlines expands the stage's template list into concrete
// deadlines anchored at triggerDate and appends them to the case. Templates
// with a DependsOn edge are anchored at the parent deadline's due date
// instead, and the new id is recorded on the parent's dependent list.
//
// Re-running for a stage that already has deadlines fails with
// ErrAlreadyInitialized and leaves the case untouched.
func InstantiateStageDeadlines(c *models.Case, stage models.Stage, triggerDate time.Time, holidays HolidaySet) ([]models.Deadline, error) {
	if triggerDate.IsZero() {
		return nil, fmt.Errorf("instantiate deadlines for stage %q: %w", stage, ErrInvalidDate)
	}
	for _, d := range c.Details.Deadlines {
		if d.Stage == stage {
			return nil, fmt.Errorf("stage %q: %w", stage, ErrAlreadyInitialized)
		}
	}

	templates := StageTemplates(stage)
	created := make([]models.Deadline, 0, len(templates))
	for _, t := range templates {
		trigger := triggerDate
		parentIdx := -1
		if t.DependsOn != "" {
			if i := deadlineIndexByTemplateKey(c, t.DependsOn); i >= 0 {
				trigger = c.Details.Deadlines[i].DueDate
				parentIdx = i
			}
		}

		due, err := AddDays(trigger, t.Offset, t.DayUnit, holidays)
		if err != nil {
			return nil, fmt.Errorf("instantiate %q: %w", t.Key, err)
		}

		d := models.Deadline{
			ID:          uuid.New().String(),
			TemplateKey: t.Key,
			Title:       t.Title,
			Description: t.Description,
			Stage:       stage,
			StageType:   t.StageType,
			LegalBasis:  t.LegalBasis,
			TriggerDate: trigger,
			DayUnit:     t.DayUnit,
			Offset:      t.Offset,
			DueDate:     due,
			Extensions:  []models.DeadlineExtension{},
			Dependents:  []string{},
		}
		c.Details.Deadlines = append(c.Details.Deadlines, d)
		created = append(created, d)

		if parentIdx >= 0 {
			parent := &c.Details.Deadlines[parentIdx]
			parent.Dependents = append(parent.Dependents, d.ID)
		}
	}
	return created, nil
}

// CustomDeadlineInput is a manually added deadline from an authorized actor.
type CustomDeadlineInput struct {
	Title       string
	Description string
	Stage       models.Stage
	StageType   models.StageType
	LegalBasis  string
	TriggerDate time.Time
	DayUnit     models.DayUnit
	Offset      int
}

// AddCustomDeadline validates and appends a manual deadline to the case
func AddCustomDeadline(c *models.Case, in CustomDeadlineInput, holidays HolidaySet) (*models.Deadline, error) {
	if in.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if in.Offset < 0 {
		return nil, &ValidationError{Field: "offset", Reason: "must be >= 0"}
	}
	if in.DayUnit != models.BusinessDays && in.DayUnit != models.CalendarDays {
		return nil, &ValidationError{Field: "dayUnit", Reason: fmt.Sprintf("unknown day unit %q", in.DayUnit)}
	}
	if in.TriggerDate.IsZero() {
		return nil, fmt.Errorf("custom deadline: %w", ErrInvalidDate)
	}
	if in.StageType == "" {
		in.StageType = models.StageTypeOptional
	}

	due, err := AddDays(in.TriggerDate, in.Offset, in.DayUnit, holidays)
	if err != nil {
		return nil, err
	}
	d := models.Deadline{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Stage:       in.Stage,
		StageType:   in.StageType,
		LegalBasis:  in.LegalBasis,
		TriggerDate: in.TriggerDate,
		DayUnit:     in.DayUnit,
		Offset:      in.Offset,
		DueDate:     due,
		Extensions:  []models.DeadlineExtension{},
		Dependents:  []string{},
	}
	c.Details.Deadlines = append(c.Details.Deadlines, d)
	return &c.Details.Deadlines[len(c.Details.Deadlines)-1], nil
}

// CompleteDeadline marks the deadline as completed. Completing an already
// completed deadline is a no-op success.
func CompleteDeadline(c *models.Case, deadlineID string, completedAt time.Time) (*models.Deadline, error) {
	i := deadlineIndex(c, deadlineID)
	if i < 0 {
		return nil, fmt.Errorf("deadline %q: %w", deadlineID, ErrNotFound)
	}
	d := &c.Details.Deadlines[i]
	if d.Completed {
		return d, nil
	}
	at := completedAt
	d.Completed = true
	d.CompletedAt = &at
	return d, nil
}

// ExtendDeadline grants additionalDays to the target deadline and shifts
// every transitive dependent by the same day count under the dependent's
// own day unit, re-anchoring each dependent's trigger on its parent's new
// due date. Returns the changed deadlines, target first, then dependents in
// breadth-first order.
func ExtendDeadline(c *models.Case, deadlineID string, additionalDays int, reason, actorID string, holidays HolidaySet, now time.Time) ([]models.Deadline, error) {
	if additionalDays <= 0 {
		return nil, &ValidationError{Field: "additionalDays", Reason: "must be > 0"}
	}
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "must not be empty"}
	}
	target := deadlineIndex(c, deadlineID)
	if target < 0 {
		return nil, fmt.Errorf("deadline %q: %w", deadlineID, ErrNotFound)
	}

	byID := make(map[string]int, len(c.Details.Deadlines))
	for i, d := range c.Details.Deadlines {
		byID[d.ID] = i
	}

	d := &c.Details.Deadlines[target]
	newDue, err := AddDays(d.DueDate, additionalDays, d.DayUnit, holidays)
	if err != nil {
		return nil, err
	}
	d.DueDate = newDue
	d.Extensions = append(d.Extensions, models.DeadlineExtension{
		AdditionalDays: additionalDays,
		Reason:         reason,
		ActorID:        actorID,
		AppliedAt:      now,
	})

	changed := []models.Deadline{*d}
	visited := map[int]bool{target: true}
	queue := append([]string{}, d.Dependents...)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		i, ok := byID[id]
		if !ok || visited[i] {
			continue
		}
		visited[i] = true

		dep := &c.Details.Deadlines[i]
		shifted, err := AddDays(dep.DueDate, additionalDays, dep.DayUnit, holidays)
		if err != nil {
			return nil, err
		}
		// Re-anchor on the parent that triggered the shift.
		if parent := deadlineIndexForDependent(c, id); parent >= 0 {
			dep.TriggerDate = c.Details.Deadlines[parent].DueDate
		}
		dep.DueDate = shifted
		changed = append(changed, *dep)
		queue = append(queue, dep.Dependents...)
	}
	return changed, nil
}

// Classify returns the alert level of a deadline as of today. Proximity is
// always judged in business days, even for calendar-day deadlines, so that
// urgency reads uniformly for operators.
func Classify(d models.Deadline, today time.Time, holidays HolidaySet) models.AlertLevel {
	if d.Completed {
		return models.AlertCompleted
	}
	if dateOnly(today).After(dateOnly(d.DueDate)) {
		return models.AlertOverdue
	}
	remaining, err := CountDaysBetween(today, d.DueDate, models.BusinessDays, holidays)
	if err != nil {
		return models.AlertNormal
	}
	switch {
	case remaining <= 1:
		return models.AlertCritical
	case remaining <= 3:
		return models.AlertWarning
	case remaining <= 5:
		return models.AlertInfo
	default:
		return models.AlertNormal
	}
}

func deadlineIndex(c *models.Case, id string) int {
	for i, d := range c.Details.Deadlines {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func deadlineIndexByTemplateKey(c *models.Case, key string) int {
	for i, d := range c.Details.Deadlines {
		if d.TemplateKey == key {
			return i
		}
	}
	return -1
}

func deadlineIndexForDependent(c *models.Case, dependentID string) int {
	for i, d := range c.Details.Deadlines {
		for _, dep := range d.Dependents {
			if dep == dependentID {
				return i
			}
		}
	}
	return -1
}
