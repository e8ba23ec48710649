package process

import (
	"fmt"
	"time"

	"github.com/integrityline/legal-process-api/models"
)

// mainSequence is the mandatory stage order of the procedure. Stages may
// not be skipped and the case may never move backward.
var mainSequence = []models.Stage{
	models.StageComplaintFiled,
	models.StageReception,
	models.StagePrecautionaryMeasures,
	models.StageDecisionToInvestigate,
	models.StageInvestigation,
	models.StagePreliminaryReport,
	models.StagePreliminaryReportApproved,
	models.StageAuthorityNotification,
	models.StageInvestigationClosed,
	models.StageFinalReport,
	models.StageFormalSubmission,
	models.StageAuthorityResolution,
	models.StageMeasuresAdoption,
	models.StageSanctions,
	models.StageClosed,
}

// branchRule is one conditional next-stage override. Rules for a stage are
// evaluated in declared order and the first matching condition wins; when
// none match, the main-sequence successor applies.
type branchRule struct {
	Target models.Stage
	When   func(models.CaseDetails) bool
}

var branchRules = map[models.Stage][]branchRule{
	models.StageReception: {
		{
			Target: models.StageSubsanation,
			When: func(d models.CaseDetails) bool {
				v, ok := d.FactBool(models.FactRequiresSubsanation)
				return ok && v
			},
		},
	},
	// The subsanation detour always returns to the main sequence.
	models.StageSubsanation: {
		{
			Target: models.StagePrecautionaryMeasures,
			When:   func(models.CaseDetails) bool { return true },
		},
	},
}

// guardFunc is a pure predicate over case state. It returns every unmet
// completion criterion of the stage being exited, so the UI can preview the
// full blocking list without mutating anything.
type guardFunc func(models.CaseDetails) []string

var stageGuards = map[models.Stage]guardFunc{
	models.StageComplaintFiled: func(d models.CaseDetails) []string {
		var missing []string
		if _, ok := d.FactTime(models.FactReceivedDate); !ok {
			missing = append(missing, "the complaint reception date must be recorded")
		}
		return missing
	},
	models.StageReception: func(d models.CaseDetails) []string {
		var missing []string
		if _, ok := d.FactBool(models.FactRequiresSubsanation); !ok {
			missing = append(missing, "it must be explicitly decided whether the complaint requires subsanation")
		}
		if informed, ok := d.FactBool(models.FactInformedRights); !ok || !informed {
			missing = append(missing, "the complainant must be informed of their rights")
		}
		return missing
	},
	models.StageInvestigation: func(d models.CaseDetails) []string {
		var missing []string
		if len(d.Interviews) == 0 {
			missing = append(missing, "at least one interview must be recorded")
		}
		for _, iv := range d.Interviews {
			if !iv.Signed {
				missing = append(missing, fmt.Sprintf("testimony of interview %s must be signed", iv.ID))
			}
		}
		return missing
	},
	models.StageMeasuresAdoption: func(d models.CaseDetails) []string {
		var missing []string
		for _, m := range d.Measures {
			if m.Status == "adopted" && !m.MeasureImplemented() {
				missing = append(missing, fmt.Sprintf("adopted measure %q must be implemented or verified", m.Description))
			}
		}
		return missing
	},
}

// NextStage computes the single allowed next stage for the case. ok is
// false when the case sits at the terminal stage.
func NextStage(c *models.Case) (models.Stage, bool) {
	current := c.Details.CurrentStage
	if current == models.StageClosed {
		return "", false
	}
	for _, rule := range branchRules[current] {
		if rule.When(c.Details) {
			return rule.Target, true
		}
	}
	for i, s := range mainSequence {
		if s == current && i+1 < len(mainSequence) {
			return mainSequence[i+1], true
		}
	}
	return "", false
}

// MissingPreconditions evaluates the current stage's guards without
// mutating the case, for UI previews of what blocks progress.
func MissingPreconditions(c *models.Case) []string {
	guard, ok := stageGuards[c.Details.CurrentStage]
	if !ok {
		return nil
	}
	return guard(c.Details)
}

// Transition validates and applies a stage change. Re-submitting the
// current stage is a no-op, not an error. Any other target that is not the
// computed next stage fails with IllegalTransitionError; unmet guards fail
// with PreconditionNotMetError carrying the full missing list. On success
// the history gains an entry for the entered stage and the current stage is
// updated; deadline instantiation for the entered stage is the controller's
// concern.
func Transition(c *models.Case, target models.Stage, actorID, notes string, now time.Time) error {
	current := c.Details.CurrentStage
	if current == target {
		return nil
	}

	next, ok := NextStage(c)
	if !ok {
		return &IllegalTransitionError{From: current, Requested: target}
	}
	if target != next {
		return &IllegalTransitionError{From: current, Requested: target, Allowed: next}
	}

	if missing := MissingPreconditions(c); len(missing) > 0 {
		return &PreconditionNotMetError{Stage: current, Missing: missing}
	}

	c.Details.StageHistory = append(c.Details.StageHistory, models.StageHistoryEntry{
		Stage:     target,
		EnteredAt: now,
		ActorID:   actorID,
		Notes:     notes,
	})
	c.Details.CurrentStage = target
	return nil
}

// IsKnownStage reports whether the identifier names a stage in the graph
func IsKnownStage(s models.Stage) bool {
	for _, known := range mainSequence {
		if known == s {
			return true
		}
	}
	return s == models.StageSubsanation
}
