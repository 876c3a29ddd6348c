package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taxfolio/taxfolio/internal/domain/services/auth"
	apperrors "github.com/taxfolio/taxfolio/pkg/errors"
	"github.com/taxfolio/taxfolio/pkg/logger"
)

// AuthHandler handles signup, login, and the current-user endpoint
type AuthHandler struct {
	authService *auth.Service
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// SignupRequest is the signup payload
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued token and the user it belongs to
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Signup creates a new account and returns an access token
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid signup payload: "+err.Error(), nil)
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err == auth.ErrEmailTaken {
			respondAPIError(c, apperrors.DuplicateEntry("email already registered"))
			return
		}
		h.logger.WithError(err).Error("Signup failed")
		respondBadRequest(c, err.Error(), nil)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Token: token,
		User:  UserInfo{ID: user.ID.String(), Email: user.Email},
	})
}

// Login verifies credentials and returns an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid login payload: "+err.Error(), nil)
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err == auth.ErrInvalidCredentials {
			respondUnauthorized(c, "invalid email or password")
			return
		}
		h.logger.WithError(err).Error("Login failed")
		respondInternalError(c, "internal server error")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  UserInfo{ID: user.ID.String(), Email: user.Email},
	})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, UserInfo{ID: user.ID.String(), Email: user.Email})
}
