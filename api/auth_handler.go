package api

import (
	"errors"
	"net/http"
	"strings"

	"api_pos/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// authHandler exposes login, session and user administration endpoints.
type authHandler struct {
	authService *auth.Service
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *auth.Service, logger *zap.Logger) *authHandler {
	return &authHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *authHandler) handleLogin(ctx *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	session, err := h.authService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":      session.Token,
		"username":   session.Username,
		"role":       session.Role,
		"expires_at": session.ExpiresAt,
		"views":      viewsFor(session.Role),
	})
}

func (h *authHandler) handleLogout(ctx *gin.Context) {
	h.authService.Logout(currentSession(ctx).Token)
	ctx.Status(http.StatusNoContent)
}

func (h *authHandler) handleSession(ctx *gin.Context) {
	session := currentSession(ctx)
	ctx.JSON(http.StatusOK, gin.H{
		"username":   session.Username,
		"role":       session.Role,
		"expires_at": session.ExpiresAt,
		"views":      viewsFor(session.Role),
	})
}

func (h *authHandler) handleListUsers(ctx *gin.Context) {
	users, err := h.authService.ListUsers(ctx.Request.Context())
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": users})
}

func (h *authHandler) handleCreateUser(ctx *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	user, err := h.authService.AddUser(ctx.Request.Context(), req.Username, req.Password, strings.ToLower(strings.TrimSpace(req.Role)))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, user)
}

func (h *authHandler) handleDeleteUser(ctx *gin.Context) {
	if err := h.authService.DeleteUser(ctx.Request.Context(), ctx.Param("username")); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *authHandler) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, auth.ErrInvalidRole):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUserNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrDuplicateUser), errors.Is(err, auth.ErrProtectedUser):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
