package services

import (
	"fmt"
	"strings"

	"botonic-backend/internal/models"
)

const (
	tutorIdentity    = "You are Dr. Botonic."
	defaultSubject   = "General Study"
	closingDirective = "Keep answers crisp, structured, and actionable."
	genericPersona   = "You are a calm, professor-level academic tutor. Explain step-by-step and verify understanding."
	contextMissing   = "—"
)

// Persona pairs a keyword set with the instruction it selects.
type Persona struct {
	Name        string
	Keywords    []string
	Instruction string
}

// personas is evaluated in order; the first persona with a keyword contained in the
// lower-cased subject wins.
var personas = []Persona{
	{
		Name:        "clinical",
		Keywords:    []string{"anatomy", "nursing", "medical", "musculoskeletal", "neuro"},
		Instruction: "You are a highly competent anatomy/nursing tutor. Be clinically correct and explain structure–function clearly.",
	},
}

// SelectPersona returns the persona instruction for subject.
func SelectPersona(subject string) string {
	subj := strings.ToLower(subject)
	for _, p := range personas {
		for _, k := range p.Keywords {
			if strings.Contains(subj, k) {
				return p.Instruction
			}
		}
	}
	return genericPersona
}

// EffectiveSubject picks the subject label: request field, then context.subject, then the default.
// A whitespace-only request subject still wins over context and trims down to the default.
func EffectiveSubject(req models.ChatRequest) string {
	subject := req.Subject
	if subject == "" {
		subject = contextValue(req.Context, "subject")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return defaultSubject
	}
	return subject
}

// PlanTier reads the caller's plan from the request context.
func PlanTier(req models.ChatRequest) string {
	return contextValue(req.Context, "plan")
}

func contextLine(ctx map[string]any) string {
	project := contextValue(ctx, "project")
	folder := contextValue(ctx, "folder")
	plan := contextValue(ctx, "plan")
	if project == "" && folder == "" && plan == "" {
		return ""
	}
	return fmt.Sprintf("Context: project=%s, folder=%s, plan=%s.",
		orMissing(project), orMissing(folder), orMissing(plan))
}

func orMissing(s string) string {
	if s == "" {
		return contextMissing
	}
	return s
}

func contextValue(ctx map[string]any, key string) string {
	v, ok := ctx[key]
	if !ok || v == nil {
		return ""
	}
	// zero values count as absent
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case bool:
		if !t {
			return ""
		}
	case float64:
		if t == 0 {
			return ""
		}
	case int:
		if t == 0 {
			return ""
		}
	case []any:
		if len(t) == 0 {
			return ""
		}
	case map[string]any:
		if len(t) == 0 {
			return ""
		}
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// SystemInstruction builds the single system turn for req.
func SystemInstruction(req models.ChatRequest) string {
	subject := EffectiveSubject(req)
	parts := []string{
		tutorIdentity,
		"Subject: " + subject + ".",
		contextLine(req.Context),
		SelectPersona(subject),
		closingDirective,
	}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// ComposeMessages returns the provider-ready conversation: the system instruction,
// then valid history turns in their original order, then the new user message.
func ComposeMessages(req models.ChatRequest) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, len(req.History)+2)
	msgs = append(msgs, models.ChatMessage{Role: models.RoleSystem, Content: SystemInstruction(req)})

	for _, turn := range req.History {
		if turn.Role != models.RoleUser && turn.Role != models.RoleAssistant {
			continue
		}
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		msgs = append(msgs, models.ChatMessage{Role: turn.Role, Content: content})
	}

	msgs = append(msgs, models.ChatMessage{Role: models.RoleUser, Content: strings.TrimSpace(req.Message)})
	return msgs
}
