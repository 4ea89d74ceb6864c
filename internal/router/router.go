package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"botonic-backend/internal/handlers"
	"botonic-backend/internal/middleware"
	"botonic-backend/internal/websocket"
)

func New(
	chatHandler *handlers.ChatHandler,
	checkoutHandler *handlers.CheckoutHandler,
	healthHandler *handlers.HealthHandler,
	pagesHandler *handlers.PagesHandler,
	wsHub *websocket.Hub,
	checkoutLimiter *middleware.RateLimiter,
	trustedProxies *middleware.TrustedProxies,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(trustedProxies.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	api := func(r chi.Router) {
		r.Post("/chat", chatHandler.Chat)
		r.Get("/health", healthHandler.Health)

		r.Group(func(r chi.Router) {
			r.Use(checkoutLimiter.Middleware)
			r.Post("/create-checkout-session", checkoutHandler.CreateSession)
		})
	}

	// ──── API (also mounted bare for older frontends) ────
	r.Route("/api", func(r chi.Router) {
		api(r)
		r.Get("/usage", chatHandler.Usage)
		r.Get("/ws/chat", wsHub.HandleWebSocket)
	})
	r.Group(api)

	// ──── Static site ────
	r.Get("/dr-botonic.png", pagesHandler.Avatar)
	r.Get("/assets/botonic.png", pagesHandler.Avatar)
	r.Get("/*", pagesHandler.Static)

	return r
}
