// Authentication HTTP handlers.
//
// This file exposes the account endpoints:
//   - POST /register  (create a user)
//   - POST /login     (establish a cookie session)
//   - POST /logout    (clear the session; always succeeds)
//
// The login failure path deliberately returns one generic 401 for both an
// unknown username and a wrong password.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/aksdemo/go-msg-backend/internal/http/middleware"
	"github.com/aksdemo/go-msg-backend/internal/services"
)

// CredentialsRequest is the JSON payload for register and login.
type CredentialsRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"s3cret"`
}

// Register godoc
// @ID          register
// @Summary     Create a user account
// @Description Registers a new user. The password is stored only as a salted hash.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CredentialsRequest  true  "Credentials"
// @Success     200   {object}  handlers.Envelope  "Registration complete"
// @Failure     400   {object}  handlers.Envelope  "Missing fields or duplicate username"
// @Failure     500   {object}  handlers.Envelope  "Internal error"
// @Router      /register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username and password are required")
		return
	}

	_, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		okMsg(c, "registration complete")
	case errors.Is(err, services.ErrMissingCredentials):
		fail(c, http.StatusBadRequest, "username and password are required")
	case errors.Is(err, services.ErrDuplicateUsername):
		fail(c, http.StatusBadRequest, "username already exists")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Str("username", req.Username).Msg("registration failed")
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// Login godoc
// @ID          login
// @Summary     Establish a session
// @Description Verifies credentials, sets the session cookie, and mirrors the
// @Description session into the cache with a 1-hour expiry (best effort).
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CredentialsRequest  true  "Credentials"
// @Success     200   {object}  handlers.Envelope  "Login succeeded"
// @Failure     400   {object}  handlers.Envelope  "Missing fields"
// @Failure     401   {object}  handlers.Envelope  "Invalid credentials"
// @Failure     500   {object}  handlers.Envelope  "Internal error"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username and password are required")
		return
	}

	u, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		sess := sessions.Default(c)
		sess.Set(middleware.SessionUserKey, u.Username)
		sess.Set(middleware.SessionUserIDKey, u.ID)
		if err := sess.Save(); err != nil {
			middleware.LoggerFrom(c).Error().Err(err).Msg("session save failed")
			fail(c, http.StatusInternalServerError, "login failed")
			return
		}
		c.JSON(http.StatusOK, Envelope{
			Status:   "success",
			Message:  "login successful",
			Username: u.Username,
		})
	case errors.Is(err, services.ErrMissingCredentials):
		fail(c, http.StatusBadRequest, "username and password are required")
	case errors.Is(err, services.ErrInvalidCredentials):
		// One message for unknown user and wrong password alike.
		fail(c, http.StatusUnauthorized, "invalid credentials")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("login failed")
		fail(c, http.StatusInternalServerError, "login failed")
	}
}

// Logout godoc
// @ID          logout
// @Summary     Clear the session
// @Description Clears the cookie session and best-effort deletes the cache
// @Description mirror. Always reports success.
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  handlers.Envelope  "Logout succeeded"
// @Router      /logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	// Not behind the session gate: a logout without a session is still a
	// successful logout. Read the identity straight from the cookie store.
	sess := sessions.Default(c)
	username, _ := sess.Get(middleware.SessionUserKey).(string)
	h.authSvc.Logout(c.Request.Context(), username)

	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("session clear failed")
	}
	okMsg(c, "logout successful")
}
