// Package handlers implements the HTTP endpoints of the sommelier API.
//
// Handlers are transport-thin: they validate input, call the services and
// translate results and sentinel errors into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/catalog"
	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/http/middleware"
	"github.com/tbourn/choco-sommelier/internal/services"
	"github.com/tbourn/choco-sommelier/internal/utils"
)

//
// Service contracts
//

// SessionService manages chat sessions.
type SessionService interface {
	Create(ctx context.Context, userID, title, lang string) (*domain.Session, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error)
	Get(ctx context.Context, userID, sessionID string) (*domain.Session, error)
	UpdateTitle(ctx context.Context, userID, sessionID, title string) error
	Reset(ctx context.Context, userID, sessionID string) (*domain.Session, error)
}

// SommelierService runs chat turns and exposes the catalog view.
type SommelierService interface {
	Answer(ctx context.Context, userID, sessionID, prompt, lang string) (*services.TurnResult, error)
	ListPage(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.Message, int64, error)
	Snapshot(ctx context.Context) catalog.Snapshot
}

// FeedbackService records ratings on assistant messages.
type FeedbackService interface {
	Leave(ctx context.Context, userID, messageID string, value int) error
}

//
// Handler wiring
//

// Handlers groups the API endpoints.
type Handlers struct {
	sessSvc SessionService
	sommSvc SommelierService
	fbSvc   FeedbackService

	// db enables ETags and idempotent replays; both are skipped when nil.
	db             *gorm.DB
	idempotencyTTL time.Duration
	maxPromptRunes int
}

// Option configures Handlers.
type Option func(*Handlers)

// WithDB gives the handlers read access for ETag stats and idempotency records.
func WithDB(db *gorm.DB) Option { return func(h *Handlers) { h.db = db } }

// WithIdempotencyTTL sets how long a replayable reply is kept (default 24h).
func WithIdempotencyTTL(d time.Duration) Option {
	return func(h *Handlers) {
		if d > 0 {
			h.idempotencyTTL = d
		}
	}
}

// WithMaxPromptRunes rejects longer prompts at the edge (default 2000).
func WithMaxPromptRunes(n int) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.maxPromptRunes = n
		}
	}
}

// New binds the handlers to their services.
func New(sessSvc SessionService, sommSvc SommelierService, fbSvc FeedbackService, opts ...Option) *Handlers {
	h := &Handlers{
		sessSvc:        sessSvc,
		sommSvc:        sommSvc,
		fbSvc:          fbSvc,
		idempotencyTTL: 24 * time.Hour,
		maxPromptRunes: 2000,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func userID(c *gin.Context) string { return middleware.UserID(c) }

//
// Shared DTOs
//

// Pagination carries paging metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func pagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(c.Query("page"), c.Query("page_size"))
}

func newPagination(page, pageSize int, total int64) Pagination {
	tp := utils.TotalPages(total, pageSize)
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: tp, HasNext: page < tp}
}
