package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pyplots/pyplots-backend/internal/http/response"
)

type HomeHandler struct {
	baseURL string
}

func NewHomeHandler(baseURL string) *HomeHandler {
	return &HomeHandler{baseURL: baseURL}
}

// GET /
func (h *HomeHandler) Home(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"name":    "pyplots.ai catalog API",
		"website": h.baseURL,
		"endpoints": []string{
			"/libraries", "/specs", "/specs/{id}", "/plots/filter",
			"/download/{spec}/{lib}", "/og/{spec}.png", "/stats",
		},
	})
}

// GET /health
func (h *HomeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
