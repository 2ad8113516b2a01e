package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"eventhub/internal/domain"
)

// Field limits for organizer input.
const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxLocationLength    = 255

	summaryDescriptionLength = 100
	unknownOrganizerName     = "N/A"

	// enrichConcurrency bounds the per-event count/tag lookups of one listing.
	enrichConcurrency = 4
)

type eventService struct {
	eventRepo       domain.EventRepository
	tagRepo         domain.TagRepository
	participantRepo domain.ParticipantRepository
	userRepo        domain.UserRepository
	emailService    domain.EmailService
	logger          *slog.Logger
	defaultPageSize int
	contextTimeout  time.Duration
	now             func() time.Time
}

func NewEventService(eventRepo domain.EventRepository,
	tagRepo domain.TagRepository,
	participantRepo domain.ParticipantRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	defaultPageSize int,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:       eventRepo,
		tagRepo:         tagRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		emailService:    emailService,
		logger:          logger,
		defaultPageSize: defaultPageSize,
		contextTimeout:  timeout,
		now:             time.Now,
	}
}

func (s *eventService) ListPublicEvents(ctx context.Context, query domain.PublicEventQuery) (*domain.EventPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	params := domain.PaginationParams{Page: query.Page, PageSize: query.PageSize}.Clamp(s.defaultPageSize)
	filter := domain.PublicEventFilter{Search: query.Search, Tags: query.Tags}

	total, err := s.eventRepo.CountPublic(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count public events: %w", err)
	}
	events, err := s.eventRepo.ListPublic(ctx, filter, params)
	if err != nil {
		return nil, fmt.Errorf("list public events: %w", err)
	}
	summaries, err := s.summarize(ctx, events)
	if err != nil {
		return nil, err
	}
	return &domain.EventPage{
		Events:     summaries,
		TotalCount: total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: params.TotalPages(total),
	}, nil
}

func (s *eventService) GetEventDetails(ctx context.Context, eventID string) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, event)
}

func (s *eventService) ListMyEvents(ctx context.Context, userID string) ([]*domain.EventSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	return s.summarize(ctx, events)
}

func (s *eventService) CreateEvent(ctx context.Context, input domain.CreateEventInput, organizerID string) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if organizerID == "" {
		return nil, fmt.Errorf("event organizer is required")
	}
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}
	location, err := validateLocation(input.Location)
	if err != nil {
		return nil, err
	}
	if err := s.validateStartsAt(input.StartsAt); err != nil {
		return nil, err
	}
	if err := validateCapacity(input.Capacity); err != nil {
		return nil, err
	}
	visibility, err := domain.ParseVisibility(input.Visibility)
	if err != nil {
		return nil, err
	}
	tagNames, err := validateTags(input.Tags)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	event := domain.NewEvent(title, input.Description, location, input.StartsAt.UTC(), input.Capacity, visibility, organizerID, now, now)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if len(tagNames) > 0 {
		if err := s.replaceTags(ctx, event.ID, tagNames); err != nil {
			s.discardEvent(ctx, event.ID)
			return nil, err
		}
	}
	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "organizer_id", organizerID)
	return s.details(ctx, event)
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID string, input domain.UpdateEventInput, userID string) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != userID {
		return nil, domain.ErrForbidden
	}

	updated := *event
	if input.Title != nil {
		if updated.Name, err = validateTitle(*input.Title); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		if err := validateDescription(*input.Description); err != nil {
			return nil, err
		}
		updated.Description = *input.Description
	}
	if input.StartsAt != nil {
		if err := s.validateStartsAt(*input.StartsAt); err != nil {
			return nil, err
		}
		updated.StartsAt = input.StartsAt.UTC()
	}
	if input.Location != nil {
		if updated.Location, err = validateLocation(*input.Location); err != nil {
			return nil, err
		}
	}
	if input.Capacity.Set {
		capacity := input.Capacity.Ptr()
		if err := validateCapacity(capacity); err != nil {
			return nil, err
		}
		updated.Capacity = capacity
	}
	if input.Visibility != nil {
		if updated.Visibility, err = domain.ParseVisibility(*input.Visibility); err != nil {
			return nil, err
		}
	}
	var tagNames []string
	if input.Tags != nil {
		if tagNames, err = validateTags(*input.Tags); err != nil {
			return nil, err
		}
	}

	if scalarFieldsChanged(event, &updated) {
		updated.UpdatedAt = s.now().UTC()
		if err := s.eventRepo.Update(ctx, &updated); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("update event: %w", err)
		}
	}
	if input.Tags != nil {
		if err := s.replaceTags(ctx, event.ID, tagNames); err != nil {
			return nil, err
		}
	}
	return s.details(ctx, &updated)
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != userID {
		return domain.ErrForbidden
	}

	members, err := s.participantRepo.ListMembers(ctx, eventID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", eventID, "participants", len(members))

	for _, m := range members {
		if m.UserID == event.OrganizerID {
			continue
		}
		data := &domain.EventCancelledEmailData{
			Email:     m.Email,
			Name:      m.Name,
			EventName: event.Name,
			StartsAt:  event.StartsAt.Format(time.RFC1123),
		}
		if err := s.emailService.SendEventCancelled(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "event cancelled email failed", "event_id", eventID, "user_id", m.UserID, "err", err)
		}
	}
	return nil
}

func (s *eventService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tags, err := s.tagRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *eventService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// discardEvent removes an event whose creation could not be completed.
// The delete runs on a detached context so an expired ctx still gets cleaned up.
func (s *eventService) discardEvent(ctx context.Context, eventID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		s.logger.ErrorContext(ctx, "failed to discard partially created event", "event_id", eventID, "err", err)
	}
}

func (s *eventService) replaceTags(ctx context.Context, eventID string, names []string) error {
	tags, err := s.tagRepo.FindOrCreate(ctx, names)
	if err != nil {
		return fmt.Errorf("find or create tags: %w", err)
	}
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	if err := s.tagRepo.SetForEvent(ctx, eventID, ids); err != nil {
		if errors.Is(err, domain.ErrTooManyTags) {
			return tooManyTagsError()
		}
		return fmt.Errorf("set event tags: %w", err)
	}
	return nil
}

func (s *eventService) details(ctx context.Context, event *domain.Event) (*domain.EventDetails, error) {
	organizerName := unknownOrganizerName
	organizer, err := s.userRepo.GetByID(ctx, event.OrganizerID)
	switch {
	case err == nil:
		organizerName = organizer.Name
	case errors.Is(err, domain.ErrUserNotFound):
	default:
		return nil, fmt.Errorf("get organizer: %w", err)
	}

	members, err := s.participantRepo.ListMembers(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	tags, err := s.tagRepo.ListByEventID(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list event tags: %w", err)
	}

	return &domain.EventDetails{
		ID:               event.ID,
		Name:             event.Name,
		Description:      event.Description,
		StartsAt:         event.StartsAt,
		Location:         event.Location,
		Capacity:         event.Capacity,
		Visibility:       event.Visibility,
		OrganizerID:      event.OrganizerID,
		OrganizerName:    organizerName,
		ParticipantNames: names,
		ParticipantCount: len(members),
		Tags:             tags,
	}, nil
}

// summarize builds list entries, looking up counts and tags for several events at once.
func (s *eventService) summarize(ctx context.Context, events []*domain.Event) ([]*domain.EventSummary, error) {
	summaries := make([]*domain.EventSummary, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, e := range events {
		g.Go(func() error {
			count, err := s.participantRepo.Count(gctx, e.ID)
			if err != nil {
				return fmt.Errorf("count participants: %w", err)
			}
			tags, err := s.tagRepo.ListByEventID(gctx, e.ID)
			if err != nil {
				return fmt.Errorf("list event tags: %w", err)
			}
			summaries[i] = &domain.EventSummary{
				ID:               e.ID,
				Name:             e.Name,
				Description:      truncateDescription(e.Description),
				StartsAt:         e.StartsAt,
				Location:         e.Location,
				Capacity:         e.Capacity,
				Visibility:       e.Visibility,
				OrganizerID:      e.OrganizerID,
				ParticipantCount: count,
				Tags:             tags,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func truncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= summaryDescriptionLength {
		return s
	}
	return string([]rune(s)[:summaryDescriptionLength]) + "..."
}

func scalarFieldsChanged(before, after *domain.Event) bool {
	return before.Name != after.Name ||
		before.Description != after.Description ||
		!before.StartsAt.Equal(after.StartsAt) ||
		before.Location != after.Location ||
		!sameCapacity(before.Capacity, after.Capacity) ||
		before.Visibility != after.Visibility
}

func sameCapacity(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func tooManyTagsError() error {
	return fmt.Errorf("%w: %w: an event can have at most %d tags", domain.ErrInvalidInput, domain.ErrTooManyTags, domain.MaxEventTags)
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalidInput("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", invalidInput("title must be at most %d characters", maxTitleLength)
	}
	return title, nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return invalidInput("description must be at most %d characters", maxDescriptionLength)
	}
	return nil
}

func validateLocation(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", invalidInput("location is required")
	}
	if utf8.RuneCountInString(location) > maxLocationLength {
		return "", invalidInput("location must be at most %d characters", maxLocationLength)
	}
	return location, nil
}

func (s *eventService) validateStartsAt(startsAt time.Time) error {
	if startsAt.IsZero() {
		return invalidInput("start date is required")
	}
	if !startsAt.After(s.now()) {
		return invalidInput("start date must be in the future")
	}
	return nil
}

func validateCapacity(capacity *int) error {
	if capacity == nil {
		return nil
	}
	if *capacity < 1 {
		return invalidInput("capacity must be at least 1")
	}
	if *capacity > domain.MaxCapacity {
		return invalidInput("capacity must be at most %d", domain.MaxCapacity)
	}
	return nil
}

// validateTags normalizes names and enforces the per-event limit on the distinct result.
func validateTags(names []string) ([]string, error) {
	normalized := domain.NormalizeTagNames(names)
	if len(normalized) > domain.MaxEventTags {
		return nil, tooManyTagsError()
	}
	return normalized, nil
}
