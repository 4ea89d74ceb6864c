package models

// ChatMessage is a single role/content pair, both in request history and in the
// message list sent to a provider.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string         `json:"message"`
	Subject string         `json:"subject,omitempty"`
	History []ChatMessage  `json:"history,omitempty"`
	Context map[string]any `json:"context,omitempty"`
	Model   string         `json:"model,omitempty"`
}

// ChatResponse is the reply from the chat endpoint. Soft quota denials use the same shape.
type ChatResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model,omitempty"`
}

// ProviderReply is what the provider gateway hands back to the orchestrator.
type ProviderReply struct {
	Text      string
	ModelUsed string
}
