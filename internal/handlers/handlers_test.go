package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"botonic-backend/internal/models"
	"botonic-backend/internal/repository"
	"botonic-backend/internal/services"
)

type stubProvider struct {
	reply string
	err   error
}

func (p *stubProvider) Name() string          { return "stub" }
func (p *stubProvider) FallbackModel() string { return "stub-model" }
func (p *stubProvider) Complete(context.Context, services.CompletionRequest) (string, error) {
	return p.reply, p.err
}

func newChatHandler(provider services.ChatProvider, limit int) *ChatHandler {
	svc := services.NewChatService(
		services.NewIdentityResolver(nil),
		services.NewQuotaTracker(repository.NewMemoryQuotaStore(), limit),
		services.NewGateway(provider, services.GatewayOptions{}),
		nil,
	)
	return NewChatHandler(svc)
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp.Error
}

// ─── Chat Handler Tests ───

func TestChatHandler_DemoMode(t *testing.T) {
	h := newChatHandler(nil, 50)

	rr := postJSON(t, h.Chat, "/api/chat", `{"message":"What is mitosis?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["reply"] != "Demo mode (no LLM provider key configured). You asked: “What is mitosis?”" {
		t.Fatalf("Unexpected reply %v", resp["reply"])
	}
	if _, ok := resp["model"]; ok {
		t.Fatalf("Expected model to be omitted in demo mode")
	}
}

func TestChatHandler_Reply(t *testing.T) {
	h := newChatHandler(&stubProvider{reply: "Cells divide."}, 50)

	rr := postJSON(t, h.Chat, "/api/chat", `{"message":"mitosis?","subject":"Biology","history":[{"role":"user","content":"hi"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.ChatResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Reply != "Cells divide." || resp.Model != "stub-model" {
		t.Fatalf("Unexpected response %+v", resp)
	}
}

func TestChatHandler_BadRequests(t *testing.T) {
	h := newChatHandler(nil, 50)

	tests := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":""}`},
		{"whitespace message", `{"message":"   "}`},
		{"missing message", `{}`},
		{"malformed json", `{"message":`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, h.Chat, "/api/chat", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rr.Code)
			}
			apiErr := decodeError(t, rr)
			if apiErr.Code != "VALIDATION_ERROR" || apiErr.RequestID != "req-1" {
				t.Fatalf("Unexpected error envelope %+v", apiErr)
			}
		})
	}
}

func TestChatHandler_OversizedBody(t *testing.T) {
	provider := &stubProvider{reply: "ok"}
	h := newChatHandler(provider, 50)

	body := `{"message":"` + strings.Repeat("a", maxChatBodyBytes) + `"}`
	rr := postJSON(t, h.Chat, "/api/chat", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for oversized body, got %d", rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("Unexpected error envelope %+v", apiErr)
	}
}

func TestChatHandler_LimitReachedIs200(t *testing.T) {
	h := newChatHandler(&stubProvider{reply: "ok"}, 1)

	postJSON(t, h.Chat, "/api/chat", `{"message":"one"}`)
	rr := postJSON(t, h.Chat, "/api/chat", `{"message":"two"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp models.ChatResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Reply != services.LimitReachedReply {
		t.Fatalf("Expected limit reply, got %q", resp.Reply)
	}
}

func TestChatHandler_ProviderError(t *testing.T) {
	h := newChatHandler(&stubProvider{err: errors.New("model overloaded")}, 50)

	rr := postJSON(t, h.Chat, "/api/chat", `{"message":"hi"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
	apiErr := decodeError(t, rr)
	if apiErr.Code != "AI_ERROR" || !strings.Contains(apiErr.Message, "model overloaded") {
		t.Fatalf("Expected upstream text in AI_ERROR, got %+v", apiErr)
	}
}

func TestChatHandler_Usage(t *testing.T) {
	h := newChatHandler(nil, 5)
	postJSON(t, h.Chat, "/api/chat", `{"message":"one"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	rr := httptest.NewRecorder()
	h.Usage(rr, req)

	var st models.UsageStatus
	json.NewDecoder(rr.Body).Decode(&st)
	if st.Used != 1 || st.Limit != 5 || st.Remaining != 4 {
		t.Fatalf("Unexpected usage %+v", st)
	}
}

// ─── Error Mapping Tests ───

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&services.ValidationError{Message: "bad"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{&services.UnauthorizedError{Message: "Invalid session token"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{&services.ProviderError{Provider: "openai", Err: errors.New("x")}, http.StatusInternalServerError, "AI_ERROR"},
		{services.ErrPaymentsNotConfigured, http.StatusInternalServerError, "PAYMENTS_NOT_CONFIGURED"},
		{&services.PaymentsError{Err: errors.New("x")}, http.StatusInternalServerError, "PAYMENTS_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		status, code := ServiceErrorStatus(tc.err)
		if status != tc.status || code != tc.code {
			t.Errorf("%v: expected %d %s, got %d %s", tc.err, tc.status, tc.code, status, code)
		}
	}
}

func TestHandleServiceError_HidesInternalDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rr := httptest.NewRecorder()
	handleServiceError(rr, req, errors.New("dial tcp 10.0.0.3:6379: connection refused"))

	apiErr := decodeError(t, rr)
	if strings.Contains(apiErr.Message, "6379") {
		t.Fatalf("Expected internal error text to be hidden, got %q", apiErr.Message)
	}
}

// ─── Checkout Handler Tests ───

func TestCheckoutHandler_NotConfigured(t *testing.T) {
	h := NewCheckoutHandler(services.NewCheckoutService("", map[string]string{"pro": "price_1"}, ""))

	rr := postJSON(t, h.CreateSession, "/api/create-checkout-session", `{"plan":"pro"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
	if apiErr := decodeError(t, rr); !strings.Contains(apiErr.Message, "Stripe not configured") {
		t.Fatalf("Unexpected message %q", apiErr.Message)
	}
}

func TestCheckoutHandler_InvalidPlan(t *testing.T) {
	h := NewCheckoutHandler(services.NewCheckoutService("sk_test_dummy", map[string]string{"pro": "price_1"}, ""))

	for _, body := range []string{`{"plan":"platinum"}`, `{}`, `not json`} {
		rr := postJSON(t, h.CreateSession, "/api/create-checkout-session", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rr.Code)
		}
	}
}

func TestRequestOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://botonic.example/api/create-checkout-session", nil)
	if got := requestOrigin(req); got != "http://botonic.example" {
		t.Fatalf("Expected http origin, got %q", got)
	}
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := requestOrigin(req); got != "https://botonic.example" {
		t.Fatalf("Expected forwarded https origin, got %q", got)
	}
}

// ─── Health Handler Tests ───

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(
		services.NewGateway(&stubProvider{}, services.GatewayOptions{}),
		services.NewCheckoutService("", map[string]string{"pro": "price_1", "semi_pro": ""}, ""),
		services.NewIdentityResolver(nil),
		"https://botonic.example",
	)

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var resp models.HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if resp.Status != "ok" || !resp.ProviderConfigured || resp.Provider != "stub" {
		t.Fatalf("Unexpected provider fields %+v", resp)
	}
	if resp.PaymentsConfigured || resp.IdentityConfigured {
		t.Fatalf("Expected payments and identity to be unconfigured, got %+v", resp)
	}
	if !resp.PricesPresent["pro"] || resp.PricesPresent["semi_pro"] {
		t.Fatalf("Unexpected prices_present %v", resp.PricesPresent)
	}
}

// ─── Pages Handler Tests ───

func TestPagesHandler_Avatar(t *testing.T) {
	dir := t.TempDir()
	h := NewPagesHandler(dir)

	rr := httptest.NewRecorder()
	h.Avatar(rr, httptest.NewRequest(http.MethodGet, "/dr-botonic.png", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 without an avatar, got %d", rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Code != "NOT_FOUND" {
		t.Fatalf("Expected NOT_FOUND, got %+v", apiErr)
	}

	png := []byte("\x89PNG\r\n\x1a\nfake")
	if err := os.WriteFile(filepath.Join(dir, "dr-botonic.png"), png, 0o644); err != nil {
		t.Fatalf("write avatar: %v", err)
	}
	rr = httptest.NewRecorder()
	h.Avatar(rr, httptest.NewRequest(http.MethodGet, "/assets/botonic.png", nil))
	if rr.Code != http.StatusOK || !bytes.Equal(rr.Body.Bytes(), png) {
		t.Fatalf("Expected avatar bytes, got %d", rr.Code)
	}
}

func TestPagesHandler_Static(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Botonic</h1>"), 0o644)
	h := NewPagesHandler(dir)

	rr := httptest.NewRecorder()
	h.Static(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Botonic") {
		t.Fatalf("Expected index.html, got %d %q", rr.Code, rr.Body.String())
	}
}
