package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"botonic-backend/internal/handlers"
	"botonic-backend/internal/middleware"
	"botonic-backend/internal/models"
	"botonic-backend/internal/services"
)

const maxFrameBytes = 64 * 1024

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ErrorFrame is written back when a chat frame fails.
type ErrorFrame struct {
	Error models.APIError `json:"error"`
}

// Hub serves chat over websocket connections and tracks them so they can be closed on shutdown.
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]string
	chat        *services.ChatService
}

func NewHub(chat *services.ChatService) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]string),
		chat:        chat,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	authorization := r.Header.Get("Authorization")
	if token := r.URL.Query().Get("token"); token != "" {
		authorization = "Bearer " + token
	}
	clientAddr := middleware.ClientAddr(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	h.registerConnection(conn, clientAddr)
	defer h.unregisterConnection(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteJSON(h.answer(r.Context(), data, authorization, clientAddr)); err != nil {
			return
		}
	}
}

func (h *Hub) answer(ctx context.Context, data []byte, authorization, clientAddr string) interface{} {
	var req models.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ErrorFrame{Error: models.APIError{Code: "VALIDATION_ERROR", Message: "Invalid chat frame"}}
	}

	resp, err := h.chat.Chat(ctx, services.ChatInput{
		Request:       req,
		Authorization: authorization,
		ClientAddr:    clientAddr,
	})
	if err != nil {
		_, code := handlers.ServiceErrorStatus(err)
		msg := err.Error()
		if code == "INTERNAL_ERROR" {
			log.Printf("WebSocket chat error for %s: %v", clientAddr, err)
			msg = "An unexpected error occurred"
		}
		return ErrorFrame{Error: models.APIError{Code: code, Message: msg}}
	}
	return resp
}

func (h *Hub) registerConnection(conn *websocket.Conn, clientAddr string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = clientAddr
	log.Printf("WebSocket connected: %s (total: %d)", clientAddr, len(h.connections))
}

func (h *Hub) unregisterConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	if addr, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		log.Printf("WebSocket disconnected: %s", addr)
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Close sends a going-away frame to every open connection and closes it.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for conn := range h.connections {
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
		delete(h.connections, conn)
	}
}
