package models

import "time"

type UsageOutcome string

const (
	OutcomeReply         UsageOutcome = "reply"
	OutcomeDemo          UsageOutcome = "demo"
	OutcomeLimitReached  UsageOutcome = "limit_reached"
	OutcomeProviderError UsageOutcome = "provider_error"
)

// UsageEvent records one orchestrated chat request.
type UsageEvent struct {
	ID        int64        `json:"id"`
	Identity  string       `json:"identity"`
	Day       string       `json:"day"`
	Outcome   UsageOutcome `json:"outcome"`
	Model     string       `json:"model,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
