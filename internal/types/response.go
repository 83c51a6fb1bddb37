package types

import "time"

type GenerateResponse struct {
	RequestID        string  `json:"request_id"`
	Model            string  `json:"model"`
	Provider         string  `json:"provider"`
	Text             string  `json:"text"`
	FinishReason     string  `json:"finish_reason"`
	Usage            Usage   `json:"usage"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`

	// Latency is the time spent waiting on the provider.
	Latency time.Duration `json:"-"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
