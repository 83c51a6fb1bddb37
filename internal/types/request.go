package types

import "time"

// GenerateRequest is the canonical internal representation of a single
// generation call. Provider adapters convert it to their own wire format.
type GenerateRequest struct {
	RequestID string     `json:"request_id"`
	Entity    EntityKind `json:"entity"`

	// Model is the provider-specific model name after route resolution.
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	System      string   `json:"system,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	// JSONMode asks providers that support it for a bare JSON response.
	JSONMode bool `json:"json_mode"`

	ReceivedAt time.Time `json:"-"`
}
