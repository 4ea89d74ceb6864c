package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port       string
	Env        string
	AppBaseURL string
	// FrontendURL is the CORS origin; "*" allows any.
	FrontendURL string
	PublicDir   string
	// TrustedProxies may set the client address via X-Real-IP / X-Forwarded-For.
	TrustedProxies []string

	// LLM provider
	LLMProvider      string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiConcurrent int
	LLMTimeout       time.Duration
	ChatMaxTokens    int
	ChatMaxTokensPro int

	// Quota
	DailyLimit int

	// Identity (Supabase)
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string

	// Stripe
	StripeSecretKey string
	StripePrices    map[string]string

	// Optional infrastructure
	RedisURL     string
	DatabaseURL  string
	UsageWorkers int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8000"),
		Env:         getEnvOrDefault("ENV", "development"),
		AppBaseURL:  strings.TrimRight(getEnvOrDefault("APP_BASE_URL", ""), "/"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "*"),
		PublicDir:   getEnvOrDefault("PUBLIC_DIR", "./public"),

		TrustedProxies: getEnvAsListOrDefault("TRUSTED_PROXIES", nil),

		LLMProvider:      strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:     getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnvOrDefault("OPENAI_MODEL", ""),
		OpenAIBaseURL:    getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:     getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:      getEnvOrDefault("GEMINI_MODEL", ""),
		GeminiConcurrent: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		LLMTimeout:       getEnvAsDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		ChatMaxTokens:    getEnvAsIntOrDefault("CHAT_MAX_TOKENS", 450),
		ChatMaxTokensPro: getEnvAsIntOrDefault("CHAT_MAX_TOKENS_PRO", 600),

		DailyLimit: getEnvAsIntOrDefault("BOTNOLOGY_DAILY_LIMIT", 50),

		SupabaseURL:            strings.TrimRight(getEnvOrDefault("SUPABASE_URL", ""), "/"),
		SupabaseServiceRoleKey: getEnvOrDefault("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:      getEnvOrDefault("SUPABASE_JWT_SECRET", ""),

		StripeSecretKey: getEnvOrDefault("STRIPE_SECRET_KEY", ""),
		StripePrices: map[string]string{
			"pro":        getEnvOrDefault("STRIPE_PRICE_PRO", ""),
			"semi_pro":   getEnvOrDefault("STRIPE_PRICE_SEMI_PRO", ""),
			"yearly_pro": getEnvOrDefault("STRIPE_PRICE_YEARLY_PRO", ""),
		},

		RedisURL:     getEnvOrDefault("REDIS_URL", ""),
		DatabaseURL:  getEnvOrDefault("DATABASE_URL", ""),
		UsageWorkers: getEnvAsIntOrDefault("USAGE_WORKERS", 2),
	}

	if cfg.DailyLimit < 0 {
		cfg.DailyLimit = 0
	}

	return cfg
}

// ProviderKey returns the credential for the selected LLM provider ("" means demo mode).
func (c *Config) ProviderKey() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// ProviderModel returns the configured default model for the selected provider.
func (c *Config) ProviderModel() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiModel
	}
	return c.OpenAIModel
}

// IdentityConfigured reports whether bearer tokens can be validated at all.
func (c *Config) IdentityConfigured() bool {
	return c.SupabaseJWTSecret != "" || (c.SupabaseURL != "" && c.SupabaseServiceRoleKey != "")
}

func getEnvOrDefault(key, defaultVal string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsDurationOrDefault accepts Go durations ("45s") or plain seconds ("45").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(val); err == nil {
		if n <= 0 {
			return defaultVal
		}
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// getEnvAsListOrDefault splits a comma-separated value, dropping empty items.
func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
