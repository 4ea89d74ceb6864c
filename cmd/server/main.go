package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"botonic-backend/internal/config"
	"botonic-backend/internal/database"
	"botonic-backend/internal/handlers"
	"botonic-backend/internal/middleware"
	"botonic-backend/internal/repository"
	"botonic-backend/internal/router"
	"botonic-backend/internal/services"
	"botonic-backend/internal/websocket"
	"botonic-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Botonic Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Quota Store (Redis when configured) ────
	var quotaStore services.QuotaStore
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		quotaStore = repository.NewRedisQuotaStore(redisClient)
		log.Println("✓ Redis connected (shared quota store)")
	} else {
		quotaStore = repository.NewMemoryQuotaStore()
		log.Println("✓ In-memory quota store (counts reset on restart)")
	}
	quota := services.NewQuotaTracker(quotaStore, cfg.DailyLimit)

	// ──── Step 3: Usage Event Log (PostgreSQL when configured) ────
	var usageSink services.UsageSink
	var usagePool *worker.Pool
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL, cfg.UsageWorkers+1)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool, "migrations"); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")

		usagePool = worker.NewPool(repository.NewUsageRepo(pool), cfg.UsageWorkers, 256)
		usagePool.Start()
		usageSink = usagePool
		log.Printf("✓ Usage worker pool started (%d goroutines)", cfg.UsageWorkers)
	} else {
		log.Println("✓ Usage event log disabled (no DATABASE_URL)")
	}

	// ──── Step 4: LLM Provider ────
	var provider services.ChatProvider
	switch {
	case cfg.ProviderKey() == "":
		log.Printf("✓ No %s key configured, chat runs in demo mode", cfg.LLMProvider)
	case cfg.LLMProvider == "gemini":
		gemini, err := services.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey, cfg.GeminiConcurrent)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer gemini.Close()
		provider = gemini
		log.Println("✓ Gemini client initialized")
	default:
		provider = services.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMTimeout)
		log.Printf("✓ OpenAI-compatible client initialized (%s)", cfg.OpenAIBaseURL)
	}
	gateway := services.NewGateway(provider, services.GatewayOptions{
		DefaultModel: cfg.ProviderModel(),
		MaxTokens:    cfg.ChatMaxTokens,
		MaxTokensPro: cfg.ChatMaxTokensPro,
		Timeout:      cfg.LLMTimeout,
	})

	// ──── Step 5: Identity Verification ────
	var verifier services.IdentityVerifier
	switch {
	case cfg.SupabaseJWTSecret != "":
		verifier = services.NewJWTVerifier(middleware.NewJWTAuth(cfg.SupabaseJWTSecret))
		log.Println("✓ Session tokens verified locally (Supabase JWT secret)")
	case cfg.SupabaseURL != "" && cfg.SupabaseServiceRoleKey != "":
		verifier = services.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
		log.Println("✓ Session tokens verified via Supabase Auth")
	default:
		log.Println("✓ Identity service not configured, all callers are guests")
	}
	identity := services.NewIdentityResolver(verifier)

	// ──── Initialize Services ────
	chatService := services.NewChatService(identity, quota, gateway, usageSink)
	checkoutService := services.NewCheckoutService(cfg.StripeSecretKey, cfg.StripePrices, cfg.AppBaseURL)

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(chatService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	healthHandler := handlers.NewHealthHandler(gateway, checkoutService, identity, cfg.AppBaseURL)
	pagesHandler := handlers.NewPagesHandler(cfg.PublicDir)

	// ──── Step 6: WebSocket Hub ────
	wsHub := websocket.NewHub(chatService)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	trustedProxies, err := middleware.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("✗ TRUSTED_PROXIES: %v", err)
	}
	if len(cfg.TrustedProxies) > 0 {
		log.Printf("✓ Forwarded client addresses trusted from %s", strings.Join(cfg.TrustedProxies, ", "))
	}

	checkoutLimiter := middleware.NewRateLimiter(10, time.Minute)
	r := router.New(
		chatHandler,
		checkoutHandler,
		healthHandler,
		pagesHandler,
		wsHub,
		checkoutLimiter,
		trustedProxies,
		cfg.FrontendURL,
	)

	// WriteTimeout leaves room for a full provider call.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)

		checkoutLimiter.Stop()
		if usagePool != nil {
			usagePool.Stop()
		}
	}()

	log.Printf("✓ Botonic Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/ws/chat", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-shutdownDone
}
