package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pyplots/pyplots-backend/internal/http/response"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
	"github.com/pyplots/pyplots-backend/internal/services"
)

type CatalogHandler struct {
	log     *logger.Logger
	catalog *services.CatalogService
}

func NewCatalogHandler(log *logger.Logger, catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		log:     log.With("handler", "CatalogHandler"),
		catalog: catalog,
	}
}

// GET /libraries
func (h *CatalogHandler) Libraries(c *gin.Context) {
	libs, err := h.catalog.Libraries(c.Request.Context())
	if err != nil {
		h.log.Error("list libraries", "error", err)
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"libraries": libs})
}

// GET /libraries/:id/images
func (h *CatalogHandler) LibraryImages(c *gin.Context) {
	libraryID := c.Param("id")
	images, err := h.catalog.LibraryImages(c.Request.Context(), libraryID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"library": libraryID, "images": images})
}

// GET /specs
func (h *CatalogHandler) Specs(c *gin.Context) {
	items, err := h.catalog.ListSpecs(c.Request.Context())
	if err != nil {
		h.log.Error("list specs", "error", err)
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"specs": items, "total": len(items)})
}

// GET /specs/:id
func (h *CatalogHandler) Spec(c *gin.Context) {
	detail, err := h.catalog.GetSpec(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// GET /specs/:id/images
func (h *CatalogHandler) SpecImages(c *gin.Context) {
	specID := c.Param("id")
	images, err := h.catalog.SpecImages(c.Request.Context(), specID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"spec": specID, "images": images})
}

// GET /stats
func (h *CatalogHandler) Stats(c *gin.Context) {
	stats, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("stats", "error", err)
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, stats)
}
