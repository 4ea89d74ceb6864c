package services

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable means no LLM credential is configured. Callers degrade to demo mode.
	ErrProviderUnavailable = errors.New("llm provider not configured")
	// ErrEmptyInput means the composed message list has no user-authored turn.
	ErrEmptyInput = errors.New("provide at least one user message")
	// ErrInvalidToken is returned by identity verifiers for a rejected bearer token.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrPaymentsNotConfigured means no Stripe secret key is set.
	ErrPaymentsNotConfigured = errors.New("Stripe not configured (missing STRIPE_SECRET_KEY)")
)

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

// ProviderError wraps a failed upstream LLM call.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("Chat failed: %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PaymentsError wraps a failed Stripe call.
type PaymentsError struct{ Err error }

func (e *PaymentsError) Error() string { return e.Err.Error() }

func (e *PaymentsError) Unwrap() error { return e.Err }
