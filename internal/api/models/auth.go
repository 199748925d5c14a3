package models

// TokenRequest is the request body for POST /v1/auth/token.
type TokenRequest struct {
	AdminKey string `json:"adminKey" validate:"required"`
}

// TokenResponse is the response for POST /v1/auth/token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   Timestamp `json:"expiresAt"`
}
