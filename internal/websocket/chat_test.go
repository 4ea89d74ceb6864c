package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"botonic-backend/internal/middleware"
	"botonic-backend/internal/models"
	"botonic-backend/internal/repository"
	"botonic-backend/internal/services"
)

func newTestServer(t *testing.T, verifier services.IdentityVerifier, limit int) (*Hub, string) {
	t.Helper()
	chat := services.NewChatService(
		services.NewIdentityResolver(verifier),
		services.NewQuotaTracker(repository.NewMemoryQuotaStore(), limit),
		services.NewGateway(nil, services.GatewayOptions{}),
		nil,
	)
	hub := NewHub(chat)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestHub_ChatFrames(t *testing.T) {
	_, url := newTestServer(t, nil, 1)
	conn := dial(t, url)

	if err := conn.WriteJSON(models.ChatRequest{Message: "What is mitosis?"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var resp models.ChatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if resp.Reply != services.DemoReply("What is mitosis?") {
		t.Fatalf("unexpected reply %q", resp.Reply)
	}

	// Same quota as HTTP: the second guest message hits the limit.
	conn.WriteJSON(models.ChatRequest{Message: "again"})
	conn.ReadJSON(&resp)
	if resp.Reply != services.LimitReachedReply {
		t.Fatalf("expected limit reply, got %q", resp.Reply)
	}
}

func TestHub_ErrorFrames(t *testing.T) {
	_, url := newTestServer(t, nil, 10)
	conn := dial(t, url)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"message":`))
	var frame ErrorFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if frame.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR for malformed frame, got %+v", frame)
	}

	conn.WriteJSON(models.ChatRequest{Message: "  "})
	frame = ErrorFrame{}
	conn.ReadJSON(&frame)
	if frame.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR for empty message, got %+v", frame)
	}
}

func TestHub_TokenQueryParam(t *testing.T) {
	auth := middleware.NewJWTAuth("ws-secret")
	_, url := newTestServer(t, services.NewJWTVerifier(auth), 0)

	// Guests get nothing with a zero limit, so a reply proves the token was used.
	token, _ := auth.GenerateAccessToken("user-7", "", time.Hour)
	conn := dial(t, url+"?token="+token)
	conn.WriteJSON(models.ChatRequest{Message: "hello"})

	var resp models.ChatResponse
	conn.ReadJSON(&resp)
	if resp.Reply == services.LimitReachedReply || resp.Reply == "" {
		t.Fatalf("expected authenticated reply, got %q", resp.Reply)
	}

	bad := dial(t, url+"?token=forged")
	bad.WriteJSON(models.ChatRequest{Message: "hello"})
	var frame ErrorFrame
	bad.ReadJSON(&frame)
	if frame.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED frame, got %+v", frame)
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub, url := newTestServer(t, nil, 10)
	conn := dial(t, url)

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Count() != 1 {
		t.Fatalf("expected one registered connection, got %d", hub.Count())
	}

	hub.Close()
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}
