package handlers

import (
	"encoding/json"
	"net/http"

	"botonic-backend/internal/models"
	"botonic-backend/internal/services"
)

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if !h.checkoutService.Configured() {
		handleServiceError(w, r, services.ErrPaymentsNotConfigured)
		return
	}

	// A missing or malformed body falls through to the plan check.
	var req models.CheckoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	url, err := h.checkoutService.CreateSession(req.Plan, requestOrigin(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.CheckoutResponse{URL: url})
}

func requestOrigin(r *http.Request) string {
	if r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
