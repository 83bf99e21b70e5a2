package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pyplots/pyplots-backend/internal/http/response"
	"github.com/pyplots/pyplots-backend/internal/platform/apierr"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
	"github.com/pyplots/pyplots-backend/internal/services"
)

type SEOHandler struct {
	log *logger.Logger
	seo *services.SEOService
}

func NewSEOHandler(log *logger.Logger, seo *services.SEOService) *SEOHandler {
	return &SEOHandler{
		log: log.With("handler", "SEOHandler"),
		seo: seo,
	}
}

// GET /sitemap.xml
func (h *SEOHandler) Sitemap(c *gin.Context) {
	body, err := h.seo.Sitemap(c.Request.Context())
	if err != nil {
		h.log.Error("sitemap", "error", err)
		response.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// GET /seo/*path serves minimal bot-facing HTML with OG/Twitter meta tags.
// Recognised paths: "/" (home) and "/specs/{id}".
func (h *SEOHandler) Page(c *gin.Context) {
	path := strings.Trim(c.Param("path"), "/")

	if path == "" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", h.seo.HomePage())
		return
	}

	if specID, ok := strings.CutPrefix(path, "specs/"); ok && specID != "" {
		body, err := h.seo.SpecPage(c.Request.Context(), specID)
		if err != nil {
			response.RespondError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
		return
	}

	response.RespondError(c, apierr.NotFound("no seo page for %q", path))
}
