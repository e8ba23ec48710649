package scheduler

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/integrityline/legal-process-api/databases"
	"github.com/integrityline/legal-process-api/models"
	templates "github.com/integrityline/legal-process-api/templates/html"
)

// Notifier consumes de-duplicated notification requests and performs
// delivery. The sweep only guarantees well-formed requests, not delivery
// success.
type Notifier interface {
	Notify(ctx context.Context, req models.NotificationRequest) error
}

// EmailSender sends one rendered email. Constructed once per process and
// injected, so there is no shared transport singleton.
type EmailSender interface {
	Send(toEmail, toName, subject, htmlContent, plainText string) error
}

// SendGridSender delivers email through sendgrid
type SendGridSender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewSendGridSender creates a sendgrid-backed sender
func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  "IntegrityLine Notifications",
		fromEmail: "no-reply@integrityline.example.com",
	}
}

// Send delivers a single email
func (s *SendGridSender) Send(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}

// EmailNotifier resolves the recipient and renders the reminder email for a
// notification request
type EmailNotifier struct {
	UserDB databases.UserDatabase
	Sender EmailSender
}

// Notify resolves the recipient user and sends the rendered email
func (n *EmailNotifier) Notify(ctx context.Context, req models.NotificationRequest) error {
	email, name, err := n.recipient(ctx, req)
	if err != nil {
		return fmt.Errorf("resolve recipient for %s: %w", req.DedupeKey, err)
	}
	if email == "" {
		zap.S().Warnw("no recipient email for notification, skipping delivery",
			"dedupeKey", req.DedupeKey,
			"recipientRole", req.RecipientRole,
		)
		return nil
	}

	var subject, htmlContent, plainText string
	switch req.Kind {
	case models.NotificationDeadlineReminder:
		subject = fmt.Sprintf("Legal deadline due in %d business day(s): %s", req.ThresholdDays, req.Title)
		htmlContent = templates.RenderDeadlineReminderEmail(name, req.Title, req.ThresholdDays)
		plainText = fmt.Sprintf("The legal deadline %q is due in %d business day(s).", req.Title, req.ThresholdDays)
	case models.NotificationRecommendationDueSoon:
		subject = fmt.Sprintf("Recommendation due in %d day(s): %s", req.ThresholdDays, req.Title)
		htmlContent = templates.RenderRecommendationReminderEmail(name, req.Title, req.ThresholdDays)
		plainText = fmt.Sprintf("The recommendation %q is due in %d day(s).", req.Title, req.ThresholdDays)
	case models.NotificationRecommendationOverdue:
		subject = fmt.Sprintf("Recommendation overdue by %d day(s): %s", req.ThresholdDays, req.Title)
		htmlContent = templates.RenderRecommendationOverdueEmail(name, req.Title, req.ThresholdDays)
		plainText = fmt.Sprintf("The recommendation %q is overdue by %d day(s).", req.Title, req.ThresholdDays)
	default:
		return fmt.Errorf("unknown notification kind %q", req.Kind)
	}

	return n.Sender.Send(email, name, subject, htmlContent, plainText)
}

func (n *EmailNotifier) recipient(ctx context.Context, req models.NotificationRequest) (email, name string, err error) {
	var filter bson.M
	if req.RecipientUserID != "" {
		filter = bson.M{"_id": req.RecipientUserID}
	} else {
		filter = bson.M{"user.tenantID": req.TenantID, "user.role": req.RecipientRole}
	}
	user, err := n.UserDB.FindOne(ctx, filter)
	if err != nil {
		return "", "", err
	}
	return user.Details.Email, user.Details.Name, nil
}
