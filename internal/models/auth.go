package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is issued after a successful identity challenge.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Member      Member    `json:"member"`
	Degraded    bool      `json:"degraded"`
}

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	MemberID string `json:"member_id"`
	FullName string `json:"full_name"`
	Login    string `json:"login"`
	Driver   bool   `json:"driver"`
	jwt.RegisteredClaims
}
