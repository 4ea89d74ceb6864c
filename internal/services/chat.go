package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"botonic-backend/internal/models"
)

const (
	LimitReachedReply = "You’ve reached today’s preview limit. Tuition plans unlock unlimited sessions."
	demoReplyFormat   = "Demo mode (no LLM provider key configured). You asked: “%s”"
)

// UsageSink receives one event per orchestrated request. Implementations must not block.
type UsageSink interface {
	Record(event models.UsageEvent)
}

type nopUsageSink struct{}

func (nopUsageSink) Record(models.UsageEvent) {}

// ChatInput is everything the orchestrator needs from the transport.
type ChatInput struct {
	Request       models.ChatRequest
	Authorization string
	ClientAddr    string
}

// ChatService runs the chat pipeline: validate, identify, quota, compose, dispatch, respond.
type ChatService struct {
	identity *IdentityResolver
	quota    *QuotaTracker
	gateway  *Gateway
	usage    UsageSink
}

func NewChatService(identity *IdentityResolver, quota *QuotaTracker, gateway *Gateway, usage UsageSink) *ChatService {
	if usage == nil {
		usage = nopUsageSink{}
	}
	return &ChatService{identity: identity, quota: quota, gateway: gateway, usage: usage}
}

// DemoReply is the canned answer used when no provider credential is configured.
func DemoReply(message string) string {
	return fmt.Sprintf(demoReplyFormat, message)
}

func (s *ChatService) Chat(ctx context.Context, in ChatInput) (*models.ChatResponse, error) {
	// 1) validate
	text := strings.TrimSpace(in.Request.Message)
	if text == "" {
		return nil, &ValidationError{Message: "Message is required", Fields: map[string]string{"message": "Message is required"}}
	}

	// 2) identify
	id, err := s.identity.Resolve(ctx, in.Authorization, in.ClientAddr)
	if err != nil {
		return nil, err
	}

	// 3) quota, consumed before dispatch so a disconnect cannot skip accounting
	decision, err := s.quota.CheckAndConsume(ctx, id)
	if err != nil {
		return nil, err
	}
	event := models.UsageEvent{Identity: decision.Key.Identity, Day: decision.Key.Day, CreatedAt: time.Now()}
	if !decision.Allowed {
		event.Outcome = models.OutcomeLimitReached
		s.usage.Record(event)
		return &models.ChatResponse{Reply: LimitReachedReply}, nil
	}

	// 4) compose
	messages := ComposeMessages(in.Request)

	// 5) dispatch
	reply, err := s.gateway.Send(ctx, messages, in.Request.Model, PlanTier(in.Request))
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		event.Outcome = models.OutcomeDemo
		s.usage.Record(event)
		return &models.ChatResponse{Reply: DemoReply(text)}, nil
	case errors.Is(err, ErrEmptyInput):
		return nil, &ValidationError{Message: err.Error()}
	case err != nil:
		log.Printf("chat: provider failure identity=%s count=%d err=%v", decision.Key.Identity, decision.Count, err)
		event.Outcome = models.OutcomeProviderError
		event.Model = s.gateway.ResolveModel(in.Request.Model)
		s.usage.Record(event)
		return nil, err
	}

	// 6) respond
	event.Outcome = models.OutcomeReply
	event.Model = reply.ModelUsed
	s.usage.Record(event)
	return &models.ChatResponse{Reply: reply.Text, Model: reply.ModelUsed}, nil
}

// Usage reports today's quota for the caller without consuming a unit.
func (s *ChatService) Usage(ctx context.Context, authorization, clientAddr string) (models.UsageStatus, error) {
	id, err := s.identity.Resolve(ctx, authorization, clientAddr)
	if err != nil {
		return models.UsageStatus{}, err
	}
	return s.quota.Status(ctx, id)
}
