package process

import (
	"github.com/integrityline/legal-process-api/models"
)

// DeadlineTemplate is one authored legal deadline, expanded into a concrete
// deadline when its stage is entered. DependsOn names the template key of
// the deadline whose due date anchors this one's trigger date; the edge is
// stored on the parent at instantiation so extension propagation is a plain
// graph walk.
type DeadlineTemplate struct {
	Key         string
	Title       string
	Description string
	StageType   models.StageType
	LegalBasis  string
	Offset      int
	DayUnit     models.DayUnit
	DependsOn   string
}

// Template keys referenced across stages.
const (
	tplReceiptAcknowledgement = "receipt_acknowledgement"
	tplSubsanationRequest     = "subsanation_request"
	tplPrecautionaryMeasures  = "precautionary_measures_adoption"
	tplInvestigationDecision  = "investigation_decision"
	tplInvestigationComplete  = "investigation_completion"
	tplPreliminaryReport      = "preliminary_report_draft"
	tplAuthorityNotification  = "authority_notification_dispatch"
	tplFinalReport            = "final_report_issue"
	tplFormalSubmission       = "formal_submission_dispatch"
	tplAuthorityResolution    = "authority_resolution_window"
	tplMeasuresImplementation = "measures_implementation"
	tplSanctionsApplication   = "sanctions_application"
)

// stageDeadlineTemplates is the fixed per-stage template table for the
// workplace-harassment procedure under Ley 21.643. Offsets and day units
// follow the statute; they are business rules, not tunables.
var stageDeadlineTemplates = map[models.Stage][]DeadlineTemplate{
	models.StageReception: {
		{
			Key:         tplReceiptAcknowledgement,
			Title:       "Acknowledge receipt and inform complainant of rights",
			Description: "Confirm reception of the complaint to the complainant and inform them of their rights and the procedure ahead.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Código del Trabajo art. 211-B (Ley 21.643)",
			Offset:      3,
			DayUnit:     models.BusinessDays,
		},
	},
	models.StageSubsanation: {
		{
			Key:         tplSubsanationRequest,
			Title:       "Complainant subsanation window",
			Description: "The complainant must remedy the observed defects in the complaint.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Código del Trabajo art. 211-A (Ley 21.643)",
			Offset:      5,
			DayUnit:     models.BusinessDays,
		},
	},
	models.StagePrecautionaryMeasures: {
		{
			Key:         tplPrecautionaryMeasures,
			Title:       "Adopt precautionary safeguard measures",
			Description: "Adopt measures to protect the complainant, such as workspace separation or schedule adjustments.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Código del Trabajo art. 211-B inc. 2 (Ley 21.643)",
			Offset:      3,
			DayUnit:     models.BusinessDays,
		},
	},
	models.StageDecisionToInvestigate: {
		{
			Key:         tplInvestigationDecision,
			Title:       "Decide internal investigation or remission",
			Description: "Decide whether to investigate internally or remit the complaint to the Dirección del Trabajo.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Código del Trabajo art. 211-C (Ley 21.643)",
			Offset:      3,
			DayUnit:     models.BusinessDays,
		},
	},
	models.StageInvestigation: {
		{
			Key:         tplInvestigationComplete,
			Title:       "Conclude the investigation",
			Description: "The investigation must be concluded within the legal window counted from the decision to investigate.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Código del Trabajo art. 211-C inc. 3 (Ley 21.643)",
			Offset:      30,
			DayUnit:     models.BusinessDays,
			DependsOn:   tplInvestigationDecision,
		},
	},
	models.StagePreliminaryReport: {
		{
			Key:         tplPreliminaryReport,
			Title:       "Draft preliminary investigation report",
			Description: "Draft the preliminary report with findings and testimony summaries for internal review.",
			StageType:   models.StageTypeRecommended,
			LegalBasis:  "Reglamento interno / procedimiento de investigación",
			Offset:      5,
			DayUnit:     models.BusinessDays,
		},
	},
	models.StageAuthorityNotification: {
		{
			Key:         tplAuthorityNotification,
			Title:       "Notify the labour authority",
			Description: "Dispatch the required notifications to the Dirección del Trabajo.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Código del Trabajo art. 211-C (Ley 21.643)",
			Offset:      3,
			DayUnit:     models.BusinessDays,
		},
	},
	models.StageFinalReport: {
		{
			Key:         tplFinalReport,
			Title:       "Issue final investigation report",
			Description: "Issue the final report with conclusions and proposed measures.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Código del Trabajo art. 211-C (Ley 21.643)",
			Offset:      10,
			DayUnit:     models.BusinessDays,
			DependsOn:   tplInvestigationComplete,
		},
	},
	models.StageFormalSubmission: {
		{
			Key:         tplFormalSubmission,
			Title:       "Remit final report to the labour authority",
			Description: "Submit the investigation report and conclusions to the Dirección del Trabajo.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Código del Trabajo art. 211-D (Ley 21.643)",
			Offset:      2,
			DayUnit:     models.BusinessDays,
			DependsOn:   tplFinalReport,
		},
	},
	models.StageAuthorityResolution: {
		{
			Key:         tplAuthorityResolution,
			Title:       "Labour authority resolution window",
			Description: "Window for the Dirección del Trabajo to observe or approve the investigation conclusions.",
			StageType:   models.StageTypeRecommended,
			LegalBasis:  "Código del Trabajo art. 211-D (Ley 21.643)",
			Offset:      30,
			DayUnit:     models.CalendarDays,
		},
	},
	models.StageMeasuresAdoption: {
		{
			Key:         tplMeasuresImplementation,
			Title:       "Implement corrective measures",
			Description: "Apply the corrective measures and sanctions arising from the final report.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Código del Trabajo art. 211-D inc. 2 (Ley 21.643)",
			Offset:      15,
			DayUnit:     models.CalendarDays,
		},
	},
	models.StageSanctions: {
		{
			Key:         tplSanctionsApplication,
			Title:       "Apply sanctions",
			Description: "Apply the disciplinary sanctions determined by the resolution.",
			StageType:   models.StageTypeMandatory,
			LegalBasis:  "Reglamento interno, título sobre sanciones",
			Offset:      15,
			DayUnit:     models.BusinessDays,
		},
	},
}

// StageTemplates returns the authored deadline templates for a stage. The
// returned slice is shared; callers must not mutate it.
func StageTemplates(stage models.Stage) []DeadlineTemplate {
	return stageDeadlineTemplates[stage]
}

// ValidateTemplates checks the whole template table for dangling or cyclic
// DependsOn edges. A cycle is a configuration defect and must fail fast at
// load, never during an extension at runtime.
func ValidateTemplates() error {
	byKey := make(map[string]DeadlineTemplate)
	stageOf := make(map[string]models.Stage)
	for stage, templates := range stageDeadlineTemplates {
		for _, t := range templates {
			byKey[t.Key] = t
			stageOf[t.Key] = stage
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(byKey))

	var visit func(key string, path []string) error
	visit = func(key string, path []string) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			return &CyclicDependencyError{Stage: stageOf[key], Cycle: append(path, key)}
		}
		state[key] = visiting
		if dep := byKey[key].DependsOn; dep != "" {
			if _, ok := byKey[dep]; !ok {
				return &CyclicDependencyError{Stage: stageOf[key], Cycle: []string{key, dep + " (undefined)"}}
			}
			if err := visit(dep, append(path, key)); err != nil {
				return err
			}
		}
		state[key] = done
		return nil
	}

	for key := range byKey {
		if err := visit(key, nil); err != nil {
			return err
		}
	}
	return nil
}
