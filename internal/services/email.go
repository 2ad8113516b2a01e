package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventhub/internal/domain"
	"eventhub/internal/metrics"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendJoinConfirmation sends the "join_confirmation" template to a new participant.
func (s *emailService) SendJoinConfirmation(ctx context.Context, data *domain.JoinConfirmationEmailData) error {
	if data == nil {
		return fmt.Errorf("join confirmation data is nil")
	}
	return s.send(ctx, "join_confirmation", data.Email, data)
}

// SendEventCancelled tells a participant that an event they joined was deleted.
func (s *emailService) SendEventCancelled(ctx context.Context, data *domain.EventCancelledEmailData) error {
	if data == nil {
		return fmt.Errorf("event cancelled data is nil")
	}
	return s.send(ctx, "event_cancelled", data.Email, data)
}

func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(template, "failed").Inc()
		return fmt.Errorf("render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		metrics.NotificationsTotal.WithLabelValues(template, "failed").Inc()
		return fmt.Errorf("send %s email: %w", template, err)
	}
	metrics.NotificationsTotal.WithLabelValues(template, "sent").Inc()
	s.logger.InfoContext(ctx, "email sent", "template", template, "to", to)
	return nil
}
