package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/domain"
	"eventhub/internal/metrics"
)

type participationService struct {
	eventRepo       domain.EventRepository
	participantRepo domain.ParticipantRepository
	userRepo        domain.UserRepository
	emailService    domain.EmailService
	logger          *slog.Logger
	contextTimeout  time.Duration
}

// NewParticipationService returns the join/leave service. Private events are joinable
// by anyone who knows their id.
func NewParticipationService(eventRepo domain.EventRepository,
	participantRepo domain.ParticipantRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ParticipationService {
	return &participationService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		emailService:    emailService,
		logger:          logger,
		contextTimeout:  timeout,
	}
}

func (s *participationService) JoinEvent(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordParticipation("join", metrics.OutcomeNotFound)
			return domain.ErrNotFound
		}
		metrics.RecordParticipation("join", metrics.OutcomeError)
		return fmt.Errorf("get event: %w", err)
	}

	// The membership check, the capacity check and the insert happen under one lock on the event.
	if err := s.participantRepo.AddWithinCapacity(ctx, userID, eventID); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyParticipating):
			metrics.RecordParticipation("join", metrics.OutcomeAlreadyParticipating)
			return domain.ErrAlreadyParticipating
		case errors.Is(err, domain.ErrEventFull):
			metrics.RecordParticipation("join", metrics.OutcomeEventFull)
			return domain.ErrEventFull
		case errors.Is(err, domain.ErrNotFound):
			metrics.RecordParticipation("join", metrics.OutcomeNotFound)
			return domain.ErrNotFound
		case errors.Is(err, domain.ErrUserNotFound):
			metrics.RecordParticipation("join", metrics.OutcomeNotFound)
			return domain.ErrUserNotFound
		}
		metrics.RecordParticipation("join", metrics.OutcomeError)
		return fmt.Errorf("add participant: %w", err)
	}
	metrics.RecordParticipation("join", metrics.OutcomeJoined)
	s.logger.InfoContext(ctx, "participant joined", "event_id", eventID, "user_id", userID)

	s.sendJoinConfirmation(ctx, event, userID)
	return nil
}

func (s *participationService) LeaveEvent(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	member, err := s.participantRepo.IsMember(ctx, userID, eventID)
	if err != nil {
		metrics.RecordParticipation("leave", metrics.OutcomeError)
		return fmt.Errorf("check participant: %w", err)
	}
	if !member {
		metrics.RecordParticipation("leave", metrics.OutcomeNotParticipating)
		return domain.ErrNotParticipating
	}
	removed, err := s.participantRepo.Remove(ctx, userID, eventID)
	if err != nil {
		metrics.RecordParticipation("leave", metrics.OutcomeError)
		return fmt.Errorf("remove participant: %w", err)
	}
	// A concurrent leave got there first.
	if !removed {
		metrics.RecordParticipation("leave", metrics.OutcomeNotParticipating)
		return domain.ErrNotParticipating
	}
	metrics.RecordParticipation("leave", metrics.OutcomeLeft)
	s.logger.InfoContext(ctx, "participant left", "event_id", eventID, "user_id", userID)
	return nil
}

// sendJoinConfirmation mails the new participant. Failures are logged, never returned.
func (s *participationService) sendJoinConfirmation(ctx context.Context, event *domain.Event, userID string) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "join confirmation skipped", "user_id", userID, "err", err)
		return
	}
	data := &domain.JoinConfirmationEmailData{
		Email:     user.Email,
		Name:      user.Name,
		EventName: event.Name,
		StartsAt:  event.StartsAt.Format(time.RFC1123),
		Location:  event.Location,
	}
	if err := s.emailService.SendJoinConfirmation(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "join confirmation failed", "event_id", event.ID, "user_id", userID, "err", err)
	}
}
