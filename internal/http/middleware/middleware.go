// Package middleware holds the request-path middleware: CORS, request
// logging, panic recovery into the error envelope and the DB guard.
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pyplots/pyplots-backend/internal/http/response"
	"github.com/pyplots/pyplots-backend/internal/platform/apierr"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// CORS allows the configured production origins plus local dev hosts.
func CORS(origins []string) gin.HandlerFunc {
	allowed := append([]string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}, origins...)

	return cors.New(cors.Config{
		AllowOrigins:     allowed,
		AllowMethods:     []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// RequestLogger emits one structured line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		reqLog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Recovery converts panics into the INTERNAL error envelope instead of
// gin's default plain-text 500.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic in handler", "path", c.Request.URL.Path, "panic", recovered)
		response.RespondError(c, apierr.Internal(fmt.Errorf("internal error")))
		c.Abort()
	})
}

// RequireDB rejects DB-backed endpoints with 503 when no database is
// configured, so the front-end can distinguish "offline" from "empty".
func RequireDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			response.RespondError(c, apierr.Unavailable("database not configured"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SecurityHeaders sets the headers the HTML proxy contract requires.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// NotFoundJSON is the fallback for unmatched routes.
func NotFoundJSON(c *gin.Context) {
	response.RespondError(c, apierr.NotFound("no route for %s", c.Request.URL.Path))
}
