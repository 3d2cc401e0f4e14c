// Message HTTP handlers.
//
//   - POST /sessions/{id}/messages  (one chat turn: user message in, sommelier reply out)
//   - GET  /sessions/{id}/messages  (transcript, paginated, ETag)
//
// A POST carrying an Idempotency-Key that already produced a reply for the
// same user and session returns the stored reply with
// `Idempotency-Replayed: true` instead of running the turn again.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/http/middleware"
	"github.com/tbourn/choco-sommelier/internal/repo"
	"github.com/tbourn/choco-sommelier/internal/services"
)

// PostMessageRequest is one user message.
type PostMessageRequest struct {
	Content string `json:"content" binding:"required,min=1" example:"Anneme hediye arıyorum"`
	// Lang overrides the session language for this turn (tr or en).
	Lang string `json:"lang,omitempty" example:"tr"`
}

// PostMessageResponse is the sommelier's reply to one turn.
type PostMessageResponse struct {
	Message   *domain.Message `json:"message"`
	GiftMode  bool            `json:"gift_mode"`
	Persona   string          `json:"persona,omitempty" example:"family"`
	Route     string          `json:"route" example:"flow_start"`
	FlowID    string          `json:"flow_id,omitempty" example:"gift"`
	Completed bool            `json:"completed"`
}

// ListMessagesResponse wraps a page of the transcript.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes line endings, collapses runs of blank lines and
// trims the message.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a message to the sommelier
// @Description Runs one conversation turn: flow steps, knowledge answers and product suggestions.
// @Description Supports idempotent retries via the Idempotency-Key header.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  true   "User ID that owns the session"
// @Param       Idempotency-Key  header  string  false  "Key for safe retries"
// @Param       id               path    string  true   "Session ID (UUID)"  format(uuid)
// @Param       body             body    handlers.PostMessageRequest  true  "User message"
// @Success     200  {object}  handlers.PostMessageResponse
// @Header      200  {string}  Idempotency-Replayed  "true when a stored reply was returned"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID, valid := sessionParam(c)
	if !valid {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	content := sanitizeContent(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	if utf8.RuneCountInString(content) > h.maxPromptRunes {
		fail(c, http.StatusBadRequest, ErrCodePromptTooLong, fmt.Sprintf("content too long: max %d runes", h.maxPromptRunes))
		return
	}

	uid := userID(c)
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && middleware.IsReplay(c) && h.replay(c, uid, sessionID, idemKey) {
		return
	}

	res, err := h.sommSvc.Answer(ctx, uid, sessionID, content, req.Lang)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodePromptTooLong, "content too long")
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, err.Error())
		}
		return
	}

	if idemKey != "" && h.db != nil {
		if _, err := repo.CreateIdempotency(ctx, h.db, uid, sessionID, idemKey, res.Message.ID, http.StatusOK, h.idempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency record")
		}
	}

	ok(c, http.StatusOK, PostMessageResponse{
		Message:   res.Message,
		GiftMode:  res.GiftMode,
		Persona:   res.Persona,
		Route:     res.Route,
		FlowID:    res.FlowID,
		Completed: res.Completed,
	})
}

// replay answers with the stored reply. It reports false when the record or
// message vanished, in which case the turn runs normally.
func (h *Handlers) replay(c *gin.Context, uid, sessionID, key string) bool {
	if h.db == nil {
		return false
	}
	ctx := c.Request.Context()
	rec, err := repo.GetIdempotency(ctx, h.db, uid, sessionID, key, time.Now().UTC())
	if err != nil {
		return false
	}
	msg, err := repo.GetMessage(ctx, h.db, rec.MessageID)
	if err != nil {
		return false
	}
	resp := PostMessageResponse{Message: msg, Route: msg.Route}
	if s, err := h.sessSvc.Get(ctx, uid, sessionID); err == nil {
		resp.GiftMode, resp.Persona = s.GiftMode, s.Persona
	}
	c.Header("Idempotency-Replayed", "true")
	ok(c, rec.Status, resp)
	return true
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List the transcript of a session
// @Tags        Messages
// @Produce     json
// @Param       X-User-ID      header  string  false "User ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID, valid := sessionParam(c)
	if !valid {
		return
	}
	uid := userID(c)

	// Only owners get an ETag, so a 304 never confirms a foreign session.
	if h.db != nil {
		if _, err := repo.GetSession(ctx, h.db, sessionID, uid); err == nil {
			if count, maxTS, err := repo.MessagesStats(ctx, h.db, sessionID); err == nil {
				var ts int64
				if maxTS != nil {
					ts = maxTS.UnixNano()
				}
				if notModified(c, "messages", sessionID, count, ts) {
					return
				}
			}
		}
	}

	page, pageSize := pagination(c)
	items, total, err := h.sommSvc.ListPage(ctx, uid, sessionID, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items, Pagination: newPagination(page, pageSize, total)})
}
