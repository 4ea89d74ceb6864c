package models

type CheckoutRequest struct {
	Plan string `json:"plan"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type HealthResponse struct {
	Status             string          `json:"status"`
	ProviderConfigured bool            `json:"provider_configured"`
	Provider           string          `json:"provider"`
	PaymentsConfigured bool            `json:"payments_configured"`
	IdentityConfigured bool            `json:"identity_configured"`
	PricesPresent      map[string]bool `json:"prices_present"`
	AppBaseURL         string          `json:"app_base_url"`
}
