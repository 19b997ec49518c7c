// Message HTTP handlers.
//
// This file exposes the message endpoints (all session-gated):
//   - POST /messages                 (save, attributed to the session user)
//   - GET  /messages                 (list all, newest first)
//   - GET  /messages/search          (body/author substring filters, AND)
//   - GET  /messages/user/{username} (one author's messages)
//
// plus the legacy unattributed pair POST /db/message and GET /db/messages
// retained from the first iteration of the service.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aksdemo/go-msg-backend/internal/http/middleware"
	"github.com/aksdemo/go-msg-backend/internal/services"
)

// SaveMessageRequest is the JSON payload for saving a message.
type SaveMessageRequest struct {
	Message string `json:"message" example:"hello world"`
}

// SaveMessage godoc
// @ID          saveMessage
// @Summary     Save a message
// @Description Persists a message attributed to the logged-in user. The
// @Description activity log and the async API-call event are side effects
// @Description and never delay or fail the response.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.SaveMessageRequest  true  "Message payload"
// @Success     200   {object}  handlers.Envelope  "Message saved"
// @Failure     400   {object}  handlers.Envelope  "Empty message body"
// @Failure     401   {object}  handlers.Envelope  "No active session"
// @Failure     500   {object}  handlers.Envelope  "Internal error"
// @Router      /messages [post]
func (h *Handlers) SaveMessage(c *gin.Context) {
	var req SaveMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "message body is required")
		return
	}

	actor := middleware.SessionUser(c)
	userID := middleware.SessionUserID(c)

	_, err := h.msgSvc.Save(c.Request.Context(), userID, actor, req.Message)
	switch {
	case err == nil:
		okMsg(c, "message saved")
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, "message body is required")
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List all messages
// @Description Returns every message joined with its author, newest first.
// @Tags        Messages
// @Produce     json
// @Success     200  {object}  handlers.Envelope  "Messages under data"
// @Failure     401  {object}  handlers.Envelope  "No active session"
// @Failure     500  {object}  handlers.Envelope  "Internal error"
// @Router      /messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	out, err := h.msgSvc.List(c.Request.Context(), middleware.SessionUser(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	okData(c, out)
}

// SearchMessages godoc
// @ID          searchMessages
// @Summary     Search messages
// @Description Case-insensitive substring search on the body (q) and,
// @Description optionally, the author name (user); filters AND-combine.
// @Tags        Messages
// @Produce     json
// @Param       q     query     string  false  "Body substring"
// @Param       user  query     string  false  "Author substring"
// @Success     200   {object}  handlers.Envelope  "Matches under data"
// @Failure     401   {object}  handlers.Envelope  "No active session"
// @Failure     500   {object}  handlers.Envelope  "Internal error"
// @Router      /messages/search [get]
func (h *Handlers) SearchMessages(c *gin.Context) {
	out, err := h.msgSvc.Search(c.Request.Context(), middleware.SessionUser(c), c.Query("q"), c.Query("user"))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	okData(c, out)
}

// UserMessages godoc
// @ID          userMessages
// @Summary     List one user's messages
// @Tags        Messages
// @Produce     json
// @Param       username  path      string  true  "Author username"
// @Success     200       {object}  handlers.Envelope  "Messages under data"
// @Failure     401       {object}  handlers.Envelope  "No active session"
// @Failure     500       {object}  handlers.Envelope  "Internal error"
// @Router      /messages/user/{username} [get]
func (h *Handlers) UserMessages(c *gin.Context) {
	out, err := h.msgSvc.ByUser(c.Request.Context(), middleware.SessionUser(c), c.Param("username"))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	okData(c, out)
}

// SaveLegacyMessage handles POST /db/message, the first-iteration surface
// that stores a message without an author reference.
func (h *Handlers) SaveLegacyMessage(c *gin.Context) {
	var req SaveMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "message body is required")
		return
	}

	_, err := h.msgSvc.SaveLegacy(c.Request.Context(), middleware.SessionUser(c), req.Message)
	switch {
	case err == nil:
		okMsg(c, "message saved")
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, "message body is required")
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// ListLegacyMessages handles GET /db/messages, aliasing the joined listing.
func (h *Handlers) ListLegacyMessages(c *gin.Context) {
	h.ListMessages(c)
}
