// Package httpapi wires the HTTP transport (Gin) to the sommelier services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, caller identity, logging/redaction, panic
// recovery, metrics, idempotency, rate limiting, compression, CORS and
// security headers.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/docs"
	"github.com/tbourn/choco-sommelier/internal/catalog"
	"github.com/tbourn/choco-sommelier/internal/config"
	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/http/handlers"
	"github.com/tbourn/choco-sommelier/internal/http/middleware"
	"github.com/tbourn/choco-sommelier/internal/repo"
	"github.com/tbourn/choco-sommelier/internal/services"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// sessionRepoShim adapts the repository free functions to services.SessionRepo.
type sessionRepoShim struct{}

func (sessionRepoShim) CreateSession(ctx context.Context, db *gorm.DB, userID, title, lang string) (*domain.Session, error) {
	return repo.CreateSession(ctx, db, userID, title, lang)
}

func (sessionRepoShim) ListSessions(ctx context.Context, db *gorm.DB, userID string) ([]domain.Session, error) {
	return repo.ListSessions(ctx, db, userID)
}

func (sessionRepoShim) GetSession(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Session, error) {
	return repo.GetSession(ctx, db, id, userID)
}

func (sessionRepoShim) UpdateSessionTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateSessionTitle(ctx, db, id, userID, title)
}

func (sessionRepoShim) CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountSessions(ctx, db, userID)
}

func (sessionRepoShim) ListSessionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Session, error) {
	return repo.ListSessionsPage(ctx, db, userID, offset, limit)
}

func (sessionRepoShim) SaveSessionTurn(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	return repo.SaveSessionTurn(ctx, db, s)
}

// Deps are the collaborators the routes are built from.
type Deps struct {
	DB      *gorm.DB
	Catalog catalog.Source
	Engine  *sommelier.Engine
	// Knowledge is refreshed from catalog snapshots; it should be the
	// retriever Engine was built with. Optional.
	Knowledge *services.KnowledgeIndex
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: resolve the caller before anything logs or limits
//  4. Access log (redacting unless LOG_REDACT=false)
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. Compression, CORS and security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	db := deps.DB

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{"X-API-Key"},
		}))
	} else {
		r.Use(middleware.Logger())
	}
	r.Use(middleware.Recovery())

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(limitBody(maxBody))

	r.Use(middleware.Metrics("/metrics"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, sessionID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, sessionID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	// ETag revalidation needs a cache that may store but must re-check.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		CacheControl: "private, no-cache",
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/catalog/engine
	sessSvc := services.NewSessionService(db, sessionRepoShim{})
	sessSvc.DefaultLang = sommelier.ParseLang(cfg.Engine.DefaultLang)
	sommSvc := &services.SommelierService{
		DB:             db,
		Catalog:        deps.Catalog,
		Engine:         deps.Engine,
		Knowledge:      deps.Knowledge,
		MaxPromptRunes: cfg.Engine.MaxPromptRunes,
		MaxReplyRunes:  cfg.Engine.MaxReplyRunes,
		TitleMaxLen:    60,
	}
	fbSvc := &services.FeedbackService{DB: db}
	h := handlers.New(sessSvc, sommSvc, fbSvc,
		handlers.WithDB(db),
		handlers.WithIdempotencyTTL(cfg.IdempotencyTTL),
		handlers.WithMaxPromptRunes(cfg.Engine.MaxPromptRunes),
	)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Sessions
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id", h.GetSession)
		api.PUT("/sessions/:id/title", h.UpdateSessionTitle)
		api.POST("/sessions/:id/reset", h.ResetSession)

		// Messages
		api.POST("/sessions/:id/messages", h.PostMessage)
		api.GET("/sessions/:id/messages", h.ListMessages)

		// Feedback
		api.POST("/messages/:id/feedback", h.LeaveFeedback)

		// Catalog
		api.GET("/products", h.ListProducts)
		api.GET("/flows", h.ListFlows)
	}
}

// corsMiddleware allows every origin when none is configured; otherwise it
// echoes allowlisted origins only.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	methods := []string{"GET", "POST", "PUT", "OPTIONS"}
	headers := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.UserIDHeader, middleware.HeaderIdempotencyKey, "If-None-Match"}
	expose := []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed"}

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// ACAO: * even without an Origin header (health checks, curl).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins: true,
				AllowMethods:    methods,
				AllowHeaders:    headers,
				ExposeHeaders:   expose,
				MaxAge:          12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  methods,
			AllowHeaders:  headers,
			ExposeHeaders: expose,
			MaxAge:        12 * time.Hour,
		}),
	}
}

// limitBody caps the request body size; reads past maxBytes fail, which the
// handlers report as a bad request.
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
