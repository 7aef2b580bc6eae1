package handlers

import (
	"net/http"

	"dilemmas/internal/middleware"
	"dilemmas/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and logs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req, false) {
		return
	}

	session, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.startSession(c, session) {
		return
	}
	respond(c, http.StatusCreated, "user registered", session)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, false) {
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.startSession(c, session) {
		return
	}
	respond(c, http.StatusOK, "login successful", session)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) startSession(c *gin.Context, s *services.Session) bool {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, s.User.ID)
	if err := session.Save(); err != nil {
		respondError(c, err)
		return false
	}
	return true
}
