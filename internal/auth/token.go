// Package auth provides JWT issuing, verification, and the session guards
// applied to every protected request and live-channel handshake.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCookieName is the cookie the browser client stores its credential in.
// The cookie takes precedence over the Authorization header when both are present.
const TokenCookieName = "hl_token"

var (
	// ErrNoCredential indicates no token was present in the request.
	ErrNoCredential = errors.New("no credential")
	// ErrInvalidToken indicates a forged, malformed, or expired token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// GenerateToken creates a signed JWT for the given user ID with the configured expiry.
func GenerateToken(userID, secret string, expiresIn time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	now := time.Now()
	expiresAt := now.Add(expiresIn)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature and expiry and returns the embedded user ID.
func ParseToken(tokenString, secret string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrNoCredential
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// CredentialFromRequest extracts the credential from an HTTP request: the
// hl_token cookie first, then the Authorization bearer header, then the
// token query parameter (browser WebSocket clients cannot set headers).
func CredentialFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if header := r.Header.Get("Authorization"); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) && len(header) > len(prefix) {
			return header[len(prefix):], nil
		}
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrNoCredential
}
