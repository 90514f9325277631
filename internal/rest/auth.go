package rest

import (
	"context"
	"net/http"
	"time"

	"abpulse/internal/repository/redis"
	"abpulse/pkg/config"
	"abpulse/pkg/logger"
	"abpulse/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type TokenStore interface {
	StoreToken(ctx context.Context, data redis.TokenData) error
	RevokeToken(ctx context.Context, token string) error
}

// AuthHandler signs the single back-office operator in and out. Tokens are
// JWTs, optionally mirrored into Redis so logout can revoke them early.
type AuthHandler struct {
	admin      config.AdminConfig
	tokenStore TokenStore
	validate   *validator.Validate
	timeout    time.Duration
}

func NewAuthHandler(admin config.AdminConfig, tokenStore TokenStore) *AuthHandler {
	return &AuthHandler{
		admin:      admin,
		tokenStore: tokenStore,
		validate:   validator.New(),
		timeout:    10 * time.Second,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if req.Email != h.admin.Email || !utils.CheckPassword(req.Password, h.admin.PasswordHash) {
		logger.Warn("failed admin login attempt", "email", req.Email)
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "invalid credentials"})
	}

	token, err := utils.GenerateJWT("1", "ADMIN")
	if err != nil {
		logger.Error("Failed to generate token", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to generate token"})
	}

	if h.tokenStore != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		defer cancel()

		data := redis.TokenData{
			UserID:    "1",
			Role:      "ADMIN",
			Token:     token,
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(24 * time.Hour),
		}
		if err := h.tokenStore.StoreToken(ctx, data); err != nil {
			logger.Error("Failed to store token", err)
			return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to store token"})
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "login successful",
		"token":   token,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "not authenticated"})
	}

	if h.tokenStore != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		defer cancel()

		if err := h.tokenStore.RevokeToken(ctx, token); err != nil {
			logger.Error("Failed to revoke token", err)
			return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to revoke token"})
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "logged out",
	})
}
