package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTAuth_RoundTrip(t *testing.T) {
	auth := NewJWTAuth("super-secret")

	token, err := auth.GenerateAccessToken("user-123", "a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	sub, err := auth.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != "user-123" {
		t.Fatalf("expected sub user-123, got %q", sub)
	}
}

func TestJWTAuth_Rejections(t *testing.T) {
	auth := NewJWTAuth("super-secret")

	expired, _ := auth.GenerateAccessToken("user-123", "", -time.Minute)
	wrongKey, _ := NewJWTAuth("other").GenerateAccessToken("user-123", "", time.Hour)
	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("super-secret"))
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", wrongKey},
		{"missing sub", noSub},
		{"alg none", unsigned},
		{"garbage", "not-a-jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := auth.Verify(tc.token); !errors.Is(err, ErrTokenRejected) {
				t.Fatalf("expected ErrTokenRejected, got %v", err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  BEARER   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, ok := BearerToken(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("header %q: expected (%q, %v), got (%q, %v)", tc.header, tc.want, tc.ok, got, ok)
		}
	}
}
