package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	httpH "github.com/pyplots/pyplots-backend/internal/http/handlers"
	httpMW "github.com/pyplots/pyplots-backend/internal/http/middleware"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	DB          *gorm.DB
	CORSOrigins []string
	Tracing     bool

	HomeHandler    *httpH.HomeHandler
	CatalogHandler *httpH.CatalogHandler
	FilterHandler  *httpH.FilterHandler
	OGHandler      *httpH.OGHandler
	SEOHandler     *httpH.SEOHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Recovery(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.Tracing {
		r.Use(otelgin.Middleware("pyplots-backend"))
	}
	r.NoRoute(httpMW.NotFoundJSON)

	r.GET("/", cfg.HomeHandler.Home)
	r.GET("/health", cfg.HomeHandler.Health)

	// /libraries answers from seed data without a DB; everything else
	// that reads the catalog sits behind the guard.
	r.GET("/libraries", cfg.CatalogHandler.Libraries)

	guarded := r.Group("/", httpMW.RequireDB(cfg.DB))
	{
		guarded.GET("/libraries/:id/images", cfg.CatalogHandler.LibraryImages)
		guarded.GET("/specs", cfg.CatalogHandler.Specs)
		guarded.GET("/specs/:id", cfg.CatalogHandler.Spec)
		guarded.GET("/specs/:id/images", cfg.CatalogHandler.SpecImages)
		guarded.GET("/plots/filter", cfg.FilterHandler.Filter)
		guarded.GET("/stats", cfg.CatalogHandler.Stats)
		guarded.GET("/download/:spec/:lib", cfg.OGHandler.Download)
		guarded.GET("/sitemap.xml", cfg.SEOHandler.Sitemap)
		guarded.GET("/seo/*path", cfg.SEOHandler.Page)

		// /og/home.png and /og/catalog.png share the :spec segment and
		// are resolved inside the handler.
		guarded.GET("/og/:spec", cfg.OGHandler.Card)
		guarded.GET("/og/:spec/:lib", cfg.OGHandler.ImplementationCard)
	}

	proxied := r.Group("/og-proxy", httpMW.SecurityHeaders())
	{
		proxied.GET("/html", cfg.OGHandler.ProxyHTML)
	}

	return r
}
