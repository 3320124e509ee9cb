package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify the business a bearer token was issued to.
type Claims struct {
	BusinessID string `json:"business_id"`
	jwt.RegisteredClaims
}

type TokenRequest struct {
	BusinessID string `json:"business_id"`
	OwnerToken string `json:"owner_token"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
