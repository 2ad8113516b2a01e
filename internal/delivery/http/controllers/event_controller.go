package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	"github.com/google/uuid"
)

// defaultVisibility applies when a create request omits visibility.
const defaultVisibility = "Public"

// CreateEventRequest is the request body for POST /api/events.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	Location    string    `json:"location" validate:"required,max=255"`
	Capacity    *int      `json:"capacity" validate:"omitempty,gte=1,lte=2147483647"`
	Visibility  string    `json:"visibility"`
	Tags        []string  `json:"tags"`
}

func (c CreateEventRequest) toInput() domain.CreateEventInput {
	visibility := c.Visibility
	if visibility == "" {
		visibility = defaultVisibility
	}
	return domain.CreateEventInput{
		Title:       c.Title,
		Description: c.Description,
		StartsAt:    c.StartsAt,
		Location:    c.Location,
		Capacity:    c.Capacity,
		Visibility:  visibility,
		Tags:        c.Tags,
	}
}

// UpdateEventRequest is the request body for PATCH /api/events/{eventID}.
// Omitted fields are unchanged; capacity may be sent as null to make the event unlimited.
// tags, when present, replaces the whole tag set.
type UpdateEventRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	StartsAt    *time.Time           `json:"starts_at"`
	Location    *string              `json:"location"`
	Capacity    domain.Optional[int] `json:"capacity" swaggertype:"integer"`
	Visibility  *string              `json:"visibility"`
	Tags        *[]string            `json:"tags"`
}

func (u UpdateEventRequest) toInput() domain.UpdateEventInput {
	return domain.UpdateEventInput{
		Title:       u.Title,
		Description: u.Description,
		StartsAt:    u.StartsAt,
		Location:    u.Location,
		Capacity:    u.Capacity,
		Visibility:  u.Visibility,
		Tags:        u.Tags,
	}
}

// EventPageSuccessResponse is the success response envelope for GET /api/events (200).
type EventPageSuccessResponse struct {
	Data  *domain.EventPage `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventDetailsSuccessResponse is the success response envelope for a single event.
type EventDetailsSuccessResponse struct {
	Data  *domain.EventDetails `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// EventSummariesSuccessResponse is the success response envelope for GET /api/users/me/events (200).
type EventSummariesSuccessResponse struct {
	Data  []*domain.EventSummary `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// DeleteEventResponse is the data payload for DELETE /api/events/{eventID} (200).
type DeleteEventResponse struct {
	Status string `json:"status"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListPublicEvents godoc
// @Summary List public events
// @Description Paginated public events ordered by start date. search matches title or description (case-insensitive); tags matches events carrying any of the given tags.
// @Tags events
// @Produce json
// @Param search query string false "Text search"
// @Param tags query string false "Comma-separated tag names"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 12, max 100)"
// @Success 200 {object} controllers.EventPageSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events [get]
func (c *EventController) ListPublicEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	query := domain.PublicEventQuery{
		Search:   r.URL.Query().Get("search"),
		Tags:     helpers.ParseTags(r),
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	page, err := c.Service.ListPublicEvents(r.Context(), query)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, page)
}

// GetEventDetails godoc
// @Summary Get event details
// @Description Returns the event with organizer name, participant names and tags. Private events are returned to anyone holding the id.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventDetailsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [get]
func (c *EventController) GetEventDetails(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	details, err := c.Service.GetEventDetails(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, details)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event organized by the caller. visibility defaults to Public; capacity omitted or null means unlimited; at most 5 distinct tags.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventDetailsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	details, err := c.Service.CreateEvent(r.Context(), req.toInput(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, details)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partially updates an event. Only the organizer may update. Omitted fields are unchanged; tags replaces the whole set.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventDetailsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	details, err := c.Service.UpdateEvent(r.Context(), eventID, req.toInput(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, details)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes the event with its memberships and tag links. Only the organizer may delete; participants are notified by email.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data.status: deleted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteEventResponse{Status: "deleted"})
}

// ListMyEvents godoc
// @Summary List my events
// @Description Events the caller organizes or participates in, ordered by start date.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventSummariesSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/users/me/events [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListMyEvents(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// eventIDFromPath returns the eventID path value, answering 400 when it is not a UUID.
func eventIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", false
	}
	if err := uuid.Validate(eventID); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "eventID must be a valid UUID")
		return "", false
	}
	return eventID, true
}

func userIDOrUnauthorized(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}
