package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	"go.uber.org/zap"
)

// AuthService signs users in
type AuthService interface {
	DemoLogin(ctx context.Context, req identityapp.DemoLoginRequest) (*identityapp.LoginResponse, error)
	GoogleAuthURL() (*identityapp.GoogleAuthURLResponse, error)
	GoogleCallback(ctx context.Context, req identityapp.GoogleCallbackRequest) (*identityapp.LoginResponse, error)
}

// AuthHandler handles sign-in and the current user endpoint
type AuthHandler struct {
	BaseHandler
	authService AuthService
	userService UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthService, userService UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: newBaseHandler(logger),
		authService: authService,
		userService: userService,
	}
}

// Login handles POST /auth/login, the email-only demo sign-in
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.DemoLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.DemoLogin(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// GoogleLogin handles GET /auth/google by redirecting to the consent screen
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	resp, err := h.authService.GoogleAuthURL()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.Redirect(http.StatusFound, resp.URL)
}

// GoogleCallback handles GET /auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	var req identityapp.GoogleCallbackRequest
	if !h.bindQuery(c, &req) {
		return
	}

	resp, err := h.authService.GoogleCallback(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	me, err := h.userService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, me)
}
