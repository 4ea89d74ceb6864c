package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenRejected is returned for tokens that fail signature, expiry or claim checks.
var ErrTokenRejected = errors.New("token rejected")

// JWTAuth verifies Supabase-issued access tokens locally with the project's JWT secret.
type JWTAuth struct {
	Secret []byte
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret)}
}

// GenerateAccessToken signs a token in the same shape Supabase issues. Used by tools and tests.
func (j *JWTAuth) GenerateAccessToken(userID, email string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  "authenticated",
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Verify parses tokenStr and returns the user id from the "sub" claim.
func (j *JWTAuth) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: invalid claims", ErrTokenRejected)
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return "", fmt.Errorf("%w: missing sub", ErrTokenRejected)
	}
	return sub, nil
}

// BearerToken extracts the token from an Authorization header value. The scheme
// match is case-insensitive; ok is false when no usable token is present.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
