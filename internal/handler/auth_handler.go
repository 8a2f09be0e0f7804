package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/response"
	"github.com/stemsi/quickquiz-console/internal/service"
	"github.com/stemsi/quickquiz-console/internal/stubserver"
	"github.com/stemsi/quickquiz-console/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	store       *stubserver.Store
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, store *stubserver.Store, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Login godoc
// POST /auth/login
// Validates email + password and returns a JWT with the user record.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, hash, ok := h.store.UserByEmail(req.EmailID)
	if !ok || h.authService.CheckPassword(hash, req.Password) != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to sign token")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.log.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	response.Success(c, http.StatusOK, model.LoginResponse{AccessToken: token, User: user})
}

// Register godoc
// POST /auth/register
// Creates a teacher or student account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to hash password")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if _, err := h.store.CreateUser(req.EmailID, req.Name, req.Role, hash); err != nil {
		failStore(c, h.log, err)
		return
	}

	response.Message(c, http.StatusCreated, "User Registered Successfully")
}
