// Session HTTP handlers.
//
//   - POST /sessions             (create)
//   - GET  /sessions             (list, paginated, ETag)
//   - GET  /sessions/{id}        (fetch, including flow state)
//   - PUT  /sessions/{id}/title  (rename)
//   - POST /sessions/{id}/reset  (leave the active flow)
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/repo"
	"github.com/tbourn/choco-sommelier/internal/services"
)

// CreateSessionRequest is the payload for creating a session.
type CreateSessionRequest struct {
	// Title is optional; "New chat" is used when empty.
	Title string `json:"title" example:"Anneme hediye"`
	// Lang is the session display language (tr or en); defaults to tr.
	Lang string `json:"lang" example:"tr"`
}

// UpdateSessionTitleRequest is the payload for renaming a session.
type UpdateSessionTitleRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255" example:"Bitter seçkisi"`
}

// ListSessionsResponse wraps a page of sessions.
type ListSessionsResponse struct {
	Sessions   []domain.Session `json:"sessions"`
	Pagination Pagination       `json:"pagination"`
}

// sessionParam validates the :id path parameter.
func sessionParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return "", false
	}
	return id, true
}

// CreateSession godoc
// @ID          createSession
// @Summary     Create a chat session
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"  example(user123)
// @Param       body       body    handlers.CreateSessionRequest  true  "Create session payload"
// @Success     201  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /sessions [post]
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.sessSvc.Create(c.Request.Context(), userID(c), strings.TrimSpace(req.Title), req.Lang)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, s)
}

// ListSessions godoc
// @ID          listSessions
// @Summary     List sessions (paginated)
// @Description Returns a page of the user's sessions, newest first. Supports a weak ETag via If-None-Match.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID      header  string  false "User ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListSessionsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if h.db != nil {
		if count, maxTS, err := repo.SessionsStats(ctx, h.db, uid); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			if notModified(c, "sessions", uid, count, ts) {
				return
			}
		}
	}

	page, pageSize := pagination(c)
	items, total, err := h.sessSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListSessionsResponse{Sessions: items, Pagination: newPagination(page, pageSize, total)})
}

// GetSession godoc
// @ID          getSession
// @Summary     Get a session
// @Description Returns the session with its current flow state, gift mode and persona.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"
// @Param       id         path    string  true  "Session ID (UUID)"  format(uuid)
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	s, err := h.sessSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		sessionError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, s)
}

// UpdateSessionTitle godoc
// @ID          updateSessionTitle
// @Summary     Rename a session
// @Tags        Sessions
// @Accept      json
// @Param       X-User-ID  header  string  false "User ID"
// @Param       id         path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       body       body    handlers.UpdateSessionTitleRequest  true  "New title"
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/title [put]
func (h *Handlers) UpdateSessionTitle(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	var req UpdateSessionTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1-255 chars)")
		return
	}
	if err := h.sessSvc.UpdateTitle(c.Request.Context(), userID(c), id, req.Title); err != nil {
		sessionError(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// ResetSession godoc
// @ID          resetSession
// @Summary     Reset the conversation
// @Description Leaves any active flow and clears gift mode and persona. The transcript is kept.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"
// @Param       id         path    string  true  "Session ID (UUID)"  format(uuid)
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/reset [post]
func (h *Handlers) ResetSession(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	s, err := h.sessSvc.Reset(c.Request.Context(), userID(c), id)
	if err != nil {
		sessionError(c, err, ErrCodeResetFailed)
		return
	}
	ok(c, http.StatusOK, s)
}

// sessionError maps ErrSessionNotFound to 404 and anything else to 500.
func sessionError(c *gin.Context, err error, code string) {
	if errors.Is(err, services.ErrSessionNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	}
	fail(c, http.StatusInternalServerError, code, err.Error())
}
