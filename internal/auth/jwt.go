// Package auth issues and validates the admin tokens that guard zone
// management endpoints.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry is how long access tokens are valid. Zone management
// sessions are short; operators exchange the admin key again when one
// lapses.
const AccessTokenExpiry = 1 * time.Hour

// RoleAdmin is the only role the API knows: it may mutate zones.
const RoleAdmin = "admin"

// Predefined auth errors.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrInvalidAdminKey    = errors.New("invalid admin key")
)

// JWTClaims represents the claims in our API access tokens.
type JWTClaims struct {
	jwt.RegisteredClaims

	// Role is the token holder's role.
	Role string `json:"role"`
}

// JWTService handles token issuance and validation.
type JWTService struct {
	signingKey []byte
	adminKey   string
	issuer     string
	audience   string
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the secret key used to sign JWTs.
	SigningKey string

	// AdminKey is the shared secret exchanged for admin tokens.
	AdminKey string

	// Issuer is the issuer claim for tokens (e.g., "https://api.saferoute.dev").
	Issuer string

	// Audience is the audience claim for tokens (e.g., "saferoute-api").
	Audience string
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		adminKey:   cfg.AdminKey,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}
}

// ExchangeAdminKey verifies the shared admin key and issues an admin
// access token.
func (s *JWTService) ExchangeAdminKey(key string) (string, time.Time, error) {
	if s.adminKey == "" {
		return "", time.Time{}, ErrInvalidAdminKey
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
		return "", time.Time{}, ErrInvalidAdminKey
	}
	return s.generateAccessToken(RoleAdmin)
}

// generateAccessToken creates a new access token with the given role.
func (s *JWTService) generateAccessToken(role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(AccessTokenExpiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   role,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken validates an access token and returns the claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// generateTokenID generates a unique token ID.
func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
