package api

import (
	"github.com/gin-gonic/gin"

	"github.com/bomatic/bomatic-server/internal/auth"
	apperrors "github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/server"
	"github.com/bomatic/bomatic-server/internal/validation"
)

// AuthHandler serves the account endpoints.
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register creates an account and sends a verification email.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	u, err := h.svc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, RegisterResponse{
		ID:         u.ID,
		Email:      u.Email,
		IsVerified: u.IsVerified,
	})
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, pair)
}

// Refresh rotates a refresh token and returns a fresh pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, pair)
}

// Verify consumes an email verification token.
func (h *AuthHandler) Verify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		server.RespondWithError(c, apperrors.MissingField("token"))
		return
	}

	u, err := h.svc.Verify(c.Request.Context(), token)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, RegisterResponse{
		ID:         u.ID,
		Email:      u.Email,
		IsVerified: u.IsVerified,
	})
}
