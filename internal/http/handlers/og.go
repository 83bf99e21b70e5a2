package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pyplots/pyplots-backend/internal/htmlproxy"
	"github.com/pyplots/pyplots-backend/internal/http/response"
	"github.com/pyplots/pyplots-backend/internal/platform/apierr"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
	"github.com/pyplots/pyplots-backend/internal/services"
	"github.com/pyplots/pyplots-backend/internal/storage"
)

const ogCacheControl = "public, max-age=3600"

// OGHandler serves the branded open-graph cards, the download proxy
// and the interactive-HTML proxy.
type OGHandler struct {
	log      *logger.Logger
	catalog  *services.CatalogService
	og       *services.OGService
	fetcher  storage.Fetcher
	proxyCfg htmlproxy.Config
}

func NewOGHandler(
	log *logger.Logger,
	catalog *services.CatalogService,
	og *services.OGService,
	fetcher storage.Fetcher,
	proxyCfg htmlproxy.Config,
) *OGHandler {
	return &OGHandler{
		log:      log.With("handler", "OGHandler"),
		catalog:  catalog,
		og:       og,
		fetcher:  fetcher,
		proxyCfg: proxyCfg,
	}
}

// GET /og/:spec serves /og/home.png, /og/catalog.png and the per-spec
// collage /og/{spec}.png. Static names are resolved here because they
// share the route segment with spec ids.
func (h *OGHandler) Card(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("spec"), ".png")

	var (
		card []byte
		err  error
	)
	switch name {
	case "home", "catalog":
		card, err = h.og.StaticCard(name)
	default:
		card, err = h.og.SpecCollage(c.Request.Context(), name)
	}
	if err != nil {
		response.RespondError(c, err)
		return
	}
	h.servePNG(c, card)
}

// GET /og/:spec/:lib serves the per-implementation card.
func (h *OGHandler) ImplementationCard(c *gin.Context) {
	specID := strings.TrimSuffix(c.Param("spec"), ".png")
	libraryID := strings.TrimSuffix(c.Param("lib"), ".png")

	card, err := h.og.ImplementationCard(c.Request.Context(), specID, libraryID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	h.servePNG(c, card)
}

func (h *OGHandler) servePNG(c *gin.Context, card []byte) {
	c.Header("Cache-Control", ogCacheControl)
	c.Data(http.StatusOK, "image/png", card)
}

// GET /download/:spec/:lib proxies the preview PNG from object
// storage as an attachment.
func (h *OGHandler) Download(c *gin.Context) {
	specID := c.Param("spec")
	libraryID := c.Param("lib")

	impl, err := h.catalog.Implementation(c.Request.Context(), specID, libraryID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	body, status, err := h.fetcher.Fetch(c.Request.Context(), impl.URL)
	if err != nil {
		h.log.Error("download fetch failed", "url", impl.URL, "error", err)
		response.RespondError(c, apierr.External("object storage unreachable"))
		return
	}
	if status != http.StatusOK {
		h.respondUpstream(c, status)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", specID+"-"+libraryID+".png"))
	c.Data(http.StatusOK, "image/png", body)
}

// GET /og-proxy/html?url=…
func (h *OGHandler) ProxyHTML(c *gin.Context) {
	target, err := htmlproxy.ValidateURL(h.proxyCfg, c.Query("url"))
	if err != nil {
		response.RespondError(c, apierr.Validation(
			"url must point at https://%s/%s/: %v", h.proxyCfg.Host, h.proxyCfg.Bucket, err))
		return
	}

	body, status, err := h.fetcher.Fetch(c.Request.Context(), target)
	if err != nil {
		h.log.Error("html proxy fetch failed", "url", target, "error", err)
		response.RespondError(c, apierr.External("object storage unreachable"))
		return
	}
	if status != http.StatusOK {
		h.respondUpstream(c, status)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", htmlproxy.InjectSizeReporter(h.proxyCfg, body))
}

// respondUpstream propagates upstream 4xx statuses and folds upstream
// server errors into 502.
func (h *OGHandler) respondUpstream(c *gin.Context, status int) {
	if status == http.StatusNotFound {
		response.RespondError(c, apierr.NotFound("artifact not found in object storage"))
		return
	}
	if status >= 400 && status < 500 {
		c.JSON(status, response.ErrorEnvelope{Error: response.APIError{
			Kind:    string(apierr.KindExternal),
			Message: fmt.Sprintf("object storage returned %d", status),
			Path:    c.Request.URL.Path,
		}})
		return
	}
	response.RespondError(c, apierr.External("object storage returned %d", status))
}
