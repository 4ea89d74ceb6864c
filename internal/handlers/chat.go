package handlers

import (
	"encoding/json"
	"net/http"

	"botonic-backend/internal/middleware"
	"botonic-backend/internal/models"
	"botonic-backend/internal/services"
)

// maxChatBodyBytes matches the websocket frame limit.
const maxChatBodyBytes = 64 << 10

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, err := h.chatService.Chat(r.Context(), services.ChatInput{
		Request:       req,
		Authorization: r.Header.Get("Authorization"),
		ClientAddr:    middleware.ClientAddr(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) Usage(w http.ResponseWriter, r *http.Request) {
	status, err := h.chatService.Usage(r.Context(), r.Header.Get("Authorization"), middleware.ClientAddr(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
