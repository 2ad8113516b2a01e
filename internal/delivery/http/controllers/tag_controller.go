package controllers

import (
	"log/slog"
	"net/http"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// ListTagsSuccessResponse is the success response envelope for GET /api/tags (200).
type ListTagsSuccessResponse struct {
	Data  []*domain.Tag     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type TagController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewTagController(logger *slog.Logger, svc domain.EventService) *TagController {
	return &TagController{Logger: logger, Service: svc}
}

// ListTags godoc
// @Summary List tags
// @Description Returns every known tag ordered by name.
// @Tags tags
// @Produce json
// @Success 200 {object} controllers.ListTagsSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/tags [get]
func (c *TagController) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := c.Service.ListTags(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tags)
}
