// Package services – SessionService
//
// This file implements the SessionService, which manages the lifecycle of
// sommelier sessions. It validates and normalizes titles, enforces ownership
// rules, and coordinates repository operations for creating, listing (with
// pagination), renaming and resetting sessions. Automatic titling happens in
// SommelierService on the first user message.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

const (
	defaultTitleNew      = "New chat"
	defaultTitleUntitled = "Untitled"
)

// SessionRepo defines the repository contract required by the services.
type SessionRepo interface {
	CreateSession(ctx context.Context, db *gorm.DB, userID, title, lang string) (*domain.Session, error)
	ListSessions(ctx context.Context, db *gorm.DB, userID string) ([]domain.Session, error)
	GetSession(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Session, error)
	UpdateSessionTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error
	CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	ListSessionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Session, error)
	SaveSessionTurn(ctx context.Context, db *gorm.DB, s *domain.Session) error
}

// SessionService provides session-level operations.
type SessionService struct {
	DB   *gorm.DB
	Repo SessionRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// DefaultLang is used when a session is created without a language.
	DefaultLang sommelier.Lang
}

// NewSessionService constructs a SessionService with default title handling.
func NewSessionService(db *gorm.DB, r SessionRepo) *SessionService {
	return &SessionService{
		DB:          db,
		Repo:        r,
		TitleMaxLen: 60,
		DefaultLang: sommelier.DefaultLang,
	}
}

var sessionTracer = otel.Tracer("services/SessionService")

// Create inserts a new idle session. lang accepts BCP-47 tags ("en-US");
// unknown or empty values fall back to DefaultLang.
func (s *SessionService) Create(ctx context.Context, userID, title, lang string) (*domain.Session, error) {
	ctx, span := sessionTracer.Start(ctx, "Create", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleNew
	}
	return s.Repo.CreateSession(ctx, s.DB, userID, s.clip(title), string(s.lang(lang)))
}

// List returns all sessions for a user (non-paginated).
func (s *SessionService) List(ctx context.Context, userID string) ([]domain.Session, error) {
	ctx, span := sessionTracer.Start(ctx, "List", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()
	return s.Repo.ListSessions(ctx, s.DB, userID)
}

// ListPage returns a page of sessions and the total count.
func (s *SessionService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error) {
	ctx, span := sessionTracer.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountSessions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Session{}, 0, nil
	}
	items, err := s.Repo.ListSessionsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get returns one session owned by userID.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	ctx, span := sessionTracer.Start(ctx, "Get", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	sess, err := s.Repo.GetSession(ctx, s.DB, sessionID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	return sess, err
}

// UpdateTitle renames a session. A blank title becomes "Untitled".
func (s *SessionService) UpdateTitle(ctx context.Context, userID, sessionID, title string) error {
	ctx, span := sessionTracer.Start(ctx, "UpdateTitle", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleUntitled
	}
	if _, err := s.Get(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.Repo.UpdateSessionTitle(ctx, s.DB, sessionID, userID, s.clip(title))
}

// Reset leaves any active flow and clears the gift and persona flags. The
// transcript is kept.
func (s *SessionService) Reset(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	ctx, span := sessionTracer.Start(ctx, "Reset", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	sess, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.State = nil
	sess.GiftMode = false
	sess.Persona = ""
	if err := s.Repo.SaveSessionTurn(ctx, s.DB, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionService) lang(raw string) sommelier.Lang {
	if strings.TrimSpace(raw) == "" {
		if s.DefaultLang != "" {
			return s.DefaultLang
		}
		return sommelier.DefaultLang
	}
	return sommelier.ParseLang(raw)
}

// clip truncates a title to the configured maximum rune length.
func (s *SessionService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
