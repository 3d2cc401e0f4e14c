// Feedback HTTP handler.
//
//   - POST /messages/{id}/feedback  (rate a sommelier reply with +1 or -1)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/choco-sommelier/internal/services"
)

// LeaveFeedbackRequest rates a reply: +1 helpful, -1 not helpful.
type LeaveFeedbackRequest struct {
	Value int `json:"value" binding:"required,oneof=-1 1" example:"1"`
}

// LeaveFeedback godoc
// @ID          leaveFeedback
// @Summary     Rate a sommelier reply
// @Tags        Feedback
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"
// @Param       id         path    string  true  "Message ID (UUID)"  format(uuid)
// @Param       body       body    handlers.LeaveFeedbackRequest true "Feedback payload"
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Invalid payload"
// @Failure     403  {object}  handlers.ErrorResponse "Not allowed to rate this message"
// @Failure     404  {object}  handlers.ErrorResponse "Message not found"
// @Failure     409  {object}  handlers.ErrorResponse "Feedback already exists"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /messages/{id}/feedback [post]
func (h *Handlers) LeaveFeedback(c *gin.Context) {
	messageID := c.Param("id")
	if _, err := uuid.Parse(messageID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message id must be a UUID")
		return
	}
	var req LeaveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		return
	}

	err := h.fbSvc.Leave(c.Request.Context(), userID(c), messageID, req.Value)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
	case errors.Is(err, services.ErrInvalidFeedback):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
	case errors.Is(err, services.ErrForbiddenFeedback):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "cannot leave feedback on this message")
	case errors.Is(err, services.ErrDuplicateFeedback):
		fail(c, http.StatusConflict, ErrCodeConflict, "feedback already exists")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
