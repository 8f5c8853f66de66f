package auth

import (
	"fmt"
	"snappy-chat/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "snappy-chat"

// TokenManager issues and verifies HS256 tokens whose subject is the username.
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), duration: duration}
}

// GenerateToken creates a signed JWT for a user.
func (m *TokenManager) GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// Authenticate checks signature and expiry and returns the username the
// token was issued for.
func (m *TokenManager) Authenticate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.ErrAuthRejected
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrAuthRejected, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.ErrAuthRejected
	}
	return claims.Subject, nil
}
