package controllers

import (
	"log/slog"
	"net/http"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// ParticipationResponse is the data payload for join and leave (200).
type ParticipationResponse struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}

// ParticipationSuccessResponse is the success response envelope for join and leave (200).
type ParticipationSuccessResponse struct {
	Data  ParticipationResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type ParticipationController struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

func NewParticipationController(logger *slog.Logger, svc domain.ParticipationService) *ParticipationController {
	return &ParticipationController{
		Logger:  logger,
		Service: svc,
	}
}

// JoinEvent godoc
// @Summary Join an event
// @Description Adds the caller as a participant. Fails when the caller already participates or the event is full.
// @Tags participation
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ParticipationSuccessResponse "data.status: joined"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_participating or event_full"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID}/join [post]
func (c *ParticipationController) JoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	if err := c.Service.JoinEvent(r.Context(), eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ParticipationResponse{EventID: eventID, Status: "joined"})
}

// LeaveEvent godoc
// @Summary Leave an event
// @Description Removes the caller's participation.
// @Tags participation
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ParticipationSuccessResponse "data.status: left"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: not_participating"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID}/leave [post]
func (c *ParticipationController) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r)
	if !ok {
		return
	}
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	if err := c.Service.LeaveEvent(r.Context(), eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ParticipationResponse{EventID: eventID, Status: "left"})
}
