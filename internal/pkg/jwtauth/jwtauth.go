package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoExpiry     = errors.New("token has no expiry")
	ErrExpired      = errors.New("token expired")
)

type Claims struct {
	UserID   int    `json:"user_id"` //nolint:tagliatelle
	Username string `json:"username"`
	jwt.StandardClaims
}

// Expiry returns the exp claim as time. Zero when the claim is absent.
func (c Claims) Expiry() time.Time {
	if c.StandardClaims.ExpiresAt == 0 {
		return time.Time{}
	}

	return time.Unix(c.StandardClaims.ExpiresAt, 0)
}

func GetToken(u models.User, ttl time.Duration, secret string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		StandardClaims: jwt.StandardClaims{ //nolint:exhaustruct
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signed string error: %w", err)
	}

	return token, nil
}

// ValidateToken checks the signature and the expiry of token.
func ValidateToken(token, secret string) (Claims, error) {
	var claims Claims

	t, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parse with claims error: %w", err)
	}

	if !t.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// ParseUnverified decodes the claims of token without checking its
// signature. The result is only good for local decisions such as whether a
// stored credential is worth sending; the server stays the authority.
func ParseUnverified(token string) (Claims, error) {
	var claims Claims

	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims, nil
}

// CheckExpiry fails when claims carry no exp or exp is not after now.
func CheckExpiry(claims Claims, now time.Time) error {
	exp := claims.Expiry()
	if exp.IsZero() {
		return ErrNoExpiry
	}

	if !exp.After(now) {
		return ErrExpired
	}

	return nil
}
