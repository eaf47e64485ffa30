package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of the access token issued on login.
type TokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
