package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/middleware"
	"github.com/stemsi/studyguide/internal/model"
	"github.com/stemsi/studyguide/internal/response"
	"github.com/stemsi/studyguide/internal/service"
	"github.com/stemsi/studyguide/internal/validator"
)

// AuthHandler handles device sign-in endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Guest godoc
// POST /api/v1/auth/guest
// Creates a device signed in as an anonymous guest.
func (h *AuthHandler) Guest(c *gin.Context) {
	sess, err := h.authService.Guest(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, sess)
}

// Login godoc
// POST /api/v1/auth/login
// Creates a device signed in with email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sess)
}

// Register godoc
// POST /api/v1/auth/register
// Creates an upstream account and a device signed in to it.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, sess)
}

// Me godoc
// GET /api/v1/auth/me
// Validates the device's upstream identity, replacing an expired guest.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	u, err := h.authService.Restore(c.Request.Context(), claims)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	u.SessionToken = ""
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the upstream session and revokes the device token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
