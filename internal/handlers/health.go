package handlers

import (
	"net/http"

	"botonic-backend/internal/models"
	"botonic-backend/internal/services"
)

type HealthHandler struct {
	gateway    *services.Gateway
	checkout   *services.CheckoutService
	identity   *services.IdentityResolver
	appBaseURL string
}

func NewHealthHandler(gateway *services.Gateway, checkout *services.CheckoutService, identity *services.IdentityResolver, appBaseURL string) *HealthHandler {
	return &HealthHandler{gateway: gateway, checkout: checkout, identity: identity, appBaseURL: appBaseURL}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:             "ok",
		ProviderConfigured: h.gateway.Configured(),
		Provider:           h.gateway.ProviderName(),
		PaymentsConfigured: h.checkout.Configured(),
		IdentityConfigured: h.identity.Configured(),
		PricesPresent:      h.checkout.PricesPresent(),
		AppBaseURL:         h.appBaseURL,
	})
}
