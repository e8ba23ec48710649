package templates

import "fmt"

// RenderDeadlineReminderEmail generates the HTML for a legal deadline
// reminder sent to the case manager.
func RenderDeadlineReminderEmail(recipientName, deadlineTitle string, businessDaysRemaining int) string {
	dayWord := "business days"
	if businessDaysRemaining == 1 {
		dayWord = "business day"
	}
	body := fmt.Sprintf(`Hi %s,

The legal deadline "%s" is due in %d %s.

Deadlines under the workplace-harassment procedure are legally binding. Please review the case timeline and either complete the pending action or request an extension before the due date.`,
		recipientName, deadlineTitle, businessDaysRemaining, dayWord)

	return RenderGenericEmail("Legal Deadline Reminder", body)
}

// RenderRecommendationReminderEmail generates the HTML for a due-soon
// recommendation reminder sent to the assignee.
func RenderRecommendationReminderEmail(recipientName, recommendationTitle string, daysRemaining int) string {
	dayWord := "days"
	if daysRemaining == 1 {
		dayWord = "day"
	}
	body := fmt.Sprintf(`Hi %s,

The recommendation "%s" assigned to you is due in %d %s.

Please update its status or complete the remediation work before the due date.`,
		recipientName, recommendationTitle, daysRemaining, dayWord)

	return RenderGenericEmail("Recommendation Due Soon", body)
}

// RenderRecommendationOverdueEmail generates the HTML for an overdue
// recommendation alert sent to the assignee.
func RenderRecommendationOverdueEmail(recipientName, recommendationTitle string, daysOverdue int) string {
	dayWord := "days"
	if daysOverdue == 1 {
		dayWord = "day"
	}
	body := fmt.Sprintf(`Hi %s,

The recommendation "%s" assigned to you is overdue by %d %s.

Overdue remediation items remain visible to case managers until closed. Please complete the work or update the item with the current blocker.`,
		recipientName, recommendationTitle, daysOverdue, dayWord)

	return RenderGenericEmail("Recommendation Overdue", body)
}
