package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{jwtService: jwtService}
}

// ExchangeToken handles POST /v1/auth/token - admin key to JWT exchange.
func (h *AuthHandler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	var input models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.AdminKey == "" {
		response.BadRequest(w, r, "adminKey is required", []models.FieldError{
			{Field: "adminKey", Message: "required"},
		})
		return
	}

	token, expiresAt, err := h.jwtService.ExchangeAdminKey(input.AdminKey)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAdminKey) {
			response.Unauthorized(w, r, "invalid admin key")
			return
		}
		response.InternalError(w, r, "token generation failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   models.Timestamp(expiresAt),
	})
}
