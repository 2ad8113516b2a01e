package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// JoinConfirmationEmailData holds data for the "you joined" email.
type JoinConfirmationEmailData struct {
	Email     string
	Name      string
	EventName string
	StartsAt  string
	Location  string
}

// EventCancelledEmailData holds data for the email sent to participants of a deleted event.
type EventCancelledEmailData struct {
	Email     string
	Name      string
	EventName string
	StartsAt  string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendJoinConfirmation(ctx context.Context, data *JoinConfirmationEmailData) error
	SendEventCancelled(ctx context.Context, data *EventCancelledEmailData) error
}
