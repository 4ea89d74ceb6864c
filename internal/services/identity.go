package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"botonic-backend/internal/middleware"
)

// Identity is the caller of one request: an authenticated user or a guest keyed by address.
type Identity struct {
	UserID     string
	Email      string
	ClientAddr string
}

func (i Identity) Authenticated() bool { return i.UserID != "" }

// Key is the quota identity string.
func (i Identity) Key() string {
	if i.Authenticated() {
		return "user:" + i.UserID
	}
	addr := i.ClientAddr
	if addr == "" {
		addr = "unknown"
	}
	return "guest:" + addr
}

// AuthUser is the subset of the identity service's user object we rely on.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IdentityVerifier validates a bearer token. It returns ErrInvalidToken (possibly
// wrapped) when the token is rejected and any other error when verification could
// not be performed.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*AuthUser, error)
}

// SupabaseVerifier asks Supabase Auth who owns a token.
type SupabaseVerifier struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseVerifier(baseURL, serviceKey string) *SupabaseVerifier {
	return &SupabaseVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (*AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.serviceKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
		return nil, fmt.Errorf("%w: identity service returned %d", ErrInvalidToken, resp.StatusCode)
	}

	var user AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user has no id", ErrInvalidToken)
	}
	return &user, nil
}

// JWTVerifier checks Supabase tokens locally with the project JWT secret.
type JWTVerifier struct {
	jwt *middleware.JWTAuth
}

func NewJWTVerifier(jwtAuth *middleware.JWTAuth) *JWTVerifier {
	return &JWTVerifier{jwt: jwtAuth}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*AuthUser, error) {
	sub, err := v.jwt.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &AuthUser{ID: sub}, nil
}

// IdentityResolver turns an optional Authorization header into an Identity.
type IdentityResolver struct {
	verifier IdentityVerifier
}

// NewIdentityResolver builds a resolver. A nil verifier treats every caller as a guest.
func NewIdentityResolver(verifier IdentityVerifier) *IdentityResolver {
	return &IdentityResolver{verifier: verifier}
}

func (r *IdentityResolver) Configured() bool { return r.verifier != nil }

// Resolve returns a guest identity when no verifier is configured or no bearer token
// is present. A supplied but rejected token yields *UnauthorizedError.
func (r *IdentityResolver) Resolve(ctx context.Context, authorization, clientAddr string) (Identity, error) {
	id := Identity{ClientAddr: clientAddr}
	if r.verifier == nil {
		return id, nil
	}

	token, ok := middleware.BearerToken(authorization)
	if !ok {
		return id, nil
	}

	user, err := r.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return id, &UnauthorizedError{Message: "Invalid session token"}
		}
		return id, fmt.Errorf("verify session token: %w", err)
	}

	id.UserID = user.ID
	id.Email = user.Email
	return id, nil
}
