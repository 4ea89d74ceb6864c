package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"botonic-backend/internal/models"
)

const geminiFallbackModel = "gemini-2.0-flash"

// GeminiProvider serves chat completions through the Gemini API.
type GeminiProvider struct {
	client   *genai.Client
	rateChan chan struct{} // Token bucket
}

func NewGeminiProvider(ctx context.Context, apiKey string, concurrentReqs int) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if concurrentReqs <= 0 {
		concurrentReqs = 5
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiProvider{client: client, rateChan: rateChan}, nil
}

func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) FallbackModel() string { return geminiFallbackModel }

// acquireRate blocks until a rate slot is available
func (p *GeminiProvider) acquireRate(ctx context.Context) error {
	select {
	case <-p.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (p *GeminiProvider) releaseRate() {
	p.rateChan <- struct{}{}
}

func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	system, history, last, err := toGeminiConversation(req.Messages)
	if err != nil {
		return "", err
	}

	if err := p.acquireRate(ctx); err != nil {
		return "", err
	}
	defer p.releaseRate()

	model := p.client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: response has no candidates")
	}
	return extractText(resp.Candidates[0]), nil
}

// toGeminiConversation splits messages into a system instruction, prior turns and the
// final user message. Gemini names the assistant role "model".
func toGeminiConversation(messages []models.ChatMessage) (string, []*genai.Content, string, error) {
	var system []string
	var turns []models.ChatMessage
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleUser, models.RoleAssistant:
			turns = append(turns, m)
		}
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != models.RoleUser {
		return "", nil, "", ErrEmptyInput
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, t := range turns[:len(turns)-1] {
		role := "user"
		if t.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}
	return strings.Join(system, "\n"), history, turns[len(turns)-1].Content, nil
}

func extractText(cand *genai.Candidate) string {
	if cand == nil || cand.Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
