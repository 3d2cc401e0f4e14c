// Package services – SommelierService
//
// This file implements SommelierService, the caller of the conversation
// engine. One chat turn validates the prompt, loads the session and the
// catalog snapshot, runs sommelier.Engine.Respond, and persists the user and
// assistant messages together with the new flow state in one transaction.
// Turns on the same session are serialized.
//
// Optional enhancement: it also auto-generates a session title from the first
// user prompt when the session still has a placeholder title.
//
// Observability: all public methods are OpenTelemetry-instrumented, and every
// reply increments sommelier_replies_total by route.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/catalog"
	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/repo"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

// SommelierService coordinates chat turns and their persistence.
type SommelierService struct {
	DB      *gorm.DB
	Catalog catalog.Source
	Engine  *sommelier.Engine
	// Knowledge, when set, is refreshed from every snapshot. It should be
	// the retriever the Engine was built with.
	Knowledge *KnowledgeIndex

	// Optional guards
	MaxPromptRunes int
	MaxReplyRunes  int

	// TitleMaxLen caps auto-generated titles by rune length.
	TitleMaxLen int

	locks keyedMutex
}

// TurnResult is what one chat turn produced.
type TurnResult struct {
	Message   *domain.Message
	GiftMode  bool
	Persona   string
	Route     string
	FlowID    string
	Completed bool
}

var sommelierTracer = otel.Tracer("services/SommelierService")

// Answer runs one chat turn. lang overrides the session language for this
// turn when non-empty.
func (s *SommelierService) Answer(ctx context.Context, userID, sessionID, prompt, lang string) (*TurnResult, error) {
	ctx, span := sommelierTracer.Start(ctx, "Answer",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := repo.GetSession(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	snap := s.snapshot(ctx)
	if s.Knowledge != nil {
		s.Knowledge.Refresh(snap)
	}

	var profile *sommelier.Sensory
	if p, err := repo.GetTasteProfile(ctx, s.DB, userID); err == nil && !p.Sensory.IsZero() {
		v := p.Sensory
		profile = &v
	}

	turnLang := sommelier.ParseLang(sess.Lang)
	if strings.TrimSpace(lang) != "" {
		turnLang = sommelier.ParseLang(lang)
	}

	reply := s.engine().Respond(sommelier.Input{
		Message:    prompt,
		Lang:       turnLang,
		State:      sess.State,
		Products:   snap.Products,
		Flows:      snap.Flows,
		Knowledge:  snap.Knowledge,
		Profile:    profile,
		PriorTurns: sess.Turns,
	})
	span.SetAttributes(
		attribute.String("sommelier.route", string(reply.Route)),
		attribute.String("sommelier.flow_id", reply.FlowID),
	)

	text := reply.Text
	if s.MaxReplyRunes > 0 && utf8.RuneCountInString(text) > s.MaxReplyRunes {
		text = string([]rune(text)[:s.MaxReplyRunes])
	}

	var assistantMsg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateMessage(ctx, tx, sessionID, roleUser, prompt, "", nil); err != nil {
			return err
		}
		m, err := repo.CreateMessage(ctx, tx, sessionID, roleAssistant, text, string(reply.Route), reply.Recommendations)
		if err != nil {
			return err
		}
		assistantMsg = m

		sess.State = reply.State
		sess.GiftMode = sess.GiftMode || reply.GiftModeActive
		switch {
		case reply.Route == sommelier.RouteReset:
			sess.GiftMode = false
			sess.Persona = ""
		case reply.Persona != "":
			sess.Persona = reply.Persona
		}
		sess.Turns++
		if shouldAutoTitle(sess.Title) {
			if gen := s.clipTitle(generateTitleFromPrompt(prompt, turnLang)); gen != "" {
				sess.Title = gen
			}
		}
		if err := repo.SaveSessionTurn(ctx, tx, sess); err != nil {
			return err
		}

		if reply.Completed && reply.Sensory != nil {
			if _, err := repo.AddTasteProfile(ctx, tx, userID, *reply.Sensory); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sommelierReplies.WithLabelValues(string(reply.Route)).Inc()
	if reply.Completed {
		flowCompletions.WithLabelValues(reply.FlowID).Inc()
	}

	return &TurnResult{
		Message:   assistantMsg,
		GiftMode:  sess.GiftMode,
		Persona:   sess.Persona,
		Route:     string(reply.Route),
		FlowID:    reply.FlowID,
		Completed: reply.Completed,
	}, nil
}

// ListPage returns paginated messages for a session owned by userID.
func (s *SommelierService) ListPage(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.Message, int64, error) {
	ctx, span := sommelierTracer.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
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

	if _, err := repo.GetSession(ctx, s.DB, sessionID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrSessionNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountMessages(ctx, s.DB, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := repo.ListMessagesPage(ctx, s.DB, sessionID, offset, pageSize)
	return items, total, err
}

// Snapshot exposes the current catalog view (used by the products and flows
// endpoints).
func (s *SommelierService) Snapshot(ctx context.Context) catalog.Snapshot {
	ctx, span := sommelierTracer.Start(ctx, "Snapshot")
	defer span.End()
	return s.snapshot(ctx)
}

// snapshot degrades to an empty catalog when the source fails, so the turn is
// still answered by the non-catalog tiers.
func (s *SommelierService) snapshot(ctx context.Context) catalog.Snapshot {
	if s.Catalog == nil {
		return catalog.Snapshot{}
	}
	snap, err := s.Catalog.Snapshot(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("catalog snapshot unavailable; answering without catalog")
		return catalog.Snapshot{}
	}
	return snap
}

func (s *SommelierService) engine() *sommelier.Engine {
	if s.Engine == nil {
		return sommelier.New()
	}
	return s.Engine
}

// shouldAutoTitle reports whether the current title is a placeholder.
func shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(defaultTitleNew) || t == strings.ToLower(defaultTitleUntitled)
}

// generateTitleFromPrompt derives a concise title cased for lang.
func generateTitleFromPrompt(prompt string, lang sommelier.Lang) string {
	tag := language.Turkish
	if lang == sommelier.LangEN {
		tag = language.English
	}
	toks := titleWordRE.FindAllString(cases.Lower(tag).String(strings.TrimSpace(prompt)), -1)
	if len(toks) == 0 {
		return ""
	}

	titleCaser := cases.Title(tag)
	out := make([]string, 0, 6)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 6 {
			break
		}
	}
	return strings.Join(out, " ")
}

// clipTitle truncates a generated title to the configured maximum rune length.
func (s *SommelierService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return strings.TrimSpace(string([]rune(title)[:max]))
	}
	return title
}

// Extract Unicode letters with optional trailing numbers.
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Stop-words dropped from generated titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "for": {}, "with": {}, "i": {}, "me": {}, "my": {}, "want": {}, "need": {},
	"bir": {}, "ve": {}, "ile": {}, "için": {}, "bu": {}, "şu": {}, "ben": {}, "bana": {},
	"mi": {}, "mı": {}, "mu": {}, "mü": {}, "da": {}, "de": {}, "istiyorum": {}, "lütfen": {},
}
