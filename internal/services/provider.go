package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"botonic-backend/internal/models"
)

// CompletionRequest is what the gateway hands a concrete provider.
type CompletionRequest struct {
	Model       string
	Messages    []models.ChatMessage
	MaxTokens   int
	Temperature float32
}

// ChatProvider is a concrete LLM backend.
type ChatProvider interface {
	Name() string
	// FallbackModel is used when neither the request nor configuration names a model.
	FallbackModel() string
	// Complete returns the text of the first returned choice ("" when it carries no content).
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type GatewayOptions struct {
	DefaultModel string
	MaxTokens    int
	MaxTokensPro int
	// Temperature defaults to 0.6 when nil; an explicit 0 is kept.
	Temperature   *float32
	Timeout       time.Duration
	ElevatedPlans []string
}

// Gateway sends composed conversations to the configured provider.
type Gateway struct {
	provider    ChatProvider
	opts        GatewayOptions
	temperature float32
}

// NewGateway builds a gateway. A nil provider means no credential is configured.
func NewGateway(provider ChatProvider, opts GatewayOptions) *Gateway {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 450
	}
	if opts.MaxTokensPro <= 0 {
		opts.MaxTokensPro = 600
	}
	temperature := float32(0.6)
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if len(opts.ElevatedPlans) == 0 {
		opts.ElevatedPlans = []string{"PRO", "YEARLY_PRO"}
	}
	return &Gateway{provider: provider, opts: opts, temperature: temperature}
}

func (g *Gateway) Configured() bool { return g.provider != nil }

func (g *Gateway) ProviderName() string {
	if g.provider == nil {
		return ""
	}
	return g.provider.Name()
}

// ResolveModel applies override -> configured default -> provider fallback.
func (g *Gateway) ResolveModel(override string) string {
	if m := strings.TrimSpace(override); m != "" {
		return m
	}
	if m := strings.TrimSpace(g.opts.DefaultModel); m != "" {
		return m
	}
	if g.provider != nil {
		return g.provider.FallbackModel()
	}
	return ""
}

// MaxTokensFor returns the reply budget for a plan tier.
func (g *Gateway) MaxTokensFor(planTier string) int {
	plan := strings.ToUpper(strings.TrimSpace(planTier))
	for _, p := range g.opts.ElevatedPlans {
		if plan == p {
			return g.opts.MaxTokensPro
		}
	}
	return g.opts.MaxTokens
}

// Send dispatches messages to the provider.
func (g *Gateway) Send(ctx context.Context, messages []models.ChatMessage, modelOverride, planTier string) (*models.ProviderReply, error) {
	if g.provider == nil {
		return nil, ErrProviderUnavailable
	}
	if !hasUserTurn(messages) {
		return nil, ErrEmptyInput
	}

	model := g.ResolveModel(modelOverride)

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	text, err := g.provider.Complete(ctx, CompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   g.MaxTokensFor(planTier),
		Temperature: g.temperature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.New("provider call timed out")
		}
		return nil, &ProviderError{Provider: g.provider.Name(), Err: err}
	}

	return &models.ProviderReply{Text: strings.TrimSpace(text), ModelUsed: model}, nil
}

func hasUserTurn(messages []models.ChatMessage) bool {
	for _, m := range messages {
		if m.Role == models.RoleUser && strings.TrimSpace(m.Content) != "" {
			return true
		}
	}
	return false
}
