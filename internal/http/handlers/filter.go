package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pyplots/pyplots-backend/internal/http/response"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
	"github.com/pyplots/pyplots-backend/internal/services"
)

type FilterHandler struct {
	log    *logger.Logger
	filter *services.FilterService
}

func NewFilterHandler(log *logger.Logger, filter *services.FilterService) *FilterHandler {
	return &FilterHandler{
		log:    log.With("handler", "FilterHandler"),
		filter: filter,
	}
}

// GET /plots/filter
func (h *FilterHandler) Filter(c *gin.Context) {
	resp, err := h.filter.Filter(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, resp)
}
