// Package httpapi wires the Gin transport to the form engine's services,
// middleware and handlers.
//
// Middleware order:
//  1. OpenTelemetry tracing
//  2. RequestID
//  3. AccessLog (redacting)
//  4. Recovery
//  5. Body size limit
//  6. Metrics
//  7. CORS and security headers
//  8. gzip
//
// The submission route adds idempotency validation and then the per-form
// rate limiter, so replays skip limiting. Admin routes are marked no-store.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-form-engine/internal/config"
	"github.com/tbourn/go-form-engine/internal/http/handlers"
	"github.com/tbourn/go-form-engine/internal/http/middleware"
	"github.com/tbourn/go-form-engine/internal/repo"
)

// Services are the application services exposed over HTTP.
type Services struct {
	Forms       handlers.FormService
	Submissions handlers.SubmissionService
	Settings    handlers.SettingsService
}

// RegisterRoutes attaches middleware and every endpoint to r.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(limitBody(maxBody))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(db))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc.Forms, svc.Submissions, svc.Settings)
	limiter := middleware.NewRateLimiter(cfg.SubmitRPS, cfg.SubmitBurst, middleware.KeyByFormAndIP())
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(db))

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Public: what an embedded form needs.
		api.GET("/forms/:id/schema", h.GetFormSchema)
		api.POST("/forms/:id/submissions", idem, limiter.Handler(), h.Submit)
	}

	admin := api.Group("", middleware.NoStore())
	{
		admin.POST("/forms", h.CreateForm)
		admin.GET("/forms", h.ListForms)
		admin.GET("/forms/slug/:slug", h.GetFormBySlug)
		admin.GET("/forms/:id", h.GetForm)
		admin.PUT("/forms/:id", h.UpdateForm)
		admin.DELETE("/forms/:id", h.DeleteForm)

		admin.GET("/submissions", h.ListSubmissions)
		admin.GET("/submissions/export", h.ExportSubmissions)
		admin.GET("/submissions/:id", h.GetSubmission)
		admin.DELETE("/submissions/:id", h.DeleteSubmission)

		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)
	}
}

// idempotencyLookup checks the stored keys of the form named by the route.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
		formID, err := strconv.ParseUint(scope, 10, 64)
		if err != nil || formID == 0 {
			return false, nil
		}
		rec, err := repo.GetIdempotency(ctx, db, formID, key, now)
		if err != nil || rec == nil {
			return false, nil
		}
		return true, nil
	}
}

// health reports liveness and whether the database answers a ping.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, dbState := http.StatusOK, "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, dbState = http.StatusServiceUnavailable, "unavailable"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "database": dbState})
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey, "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", "Retry-After", "Idempotency-Replayed", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	return cors.New(conf)
}

// limitBody caps request bodies at maxBytes.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
