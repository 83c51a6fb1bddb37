package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/types"
)

const (
	defaultAnthropicVersion   = "2023-06-01"
	defaultAnthropicMaxTokens = 4096
)

// jsonPrefill opens the assistant turn so the model continues a JSON object.
// The Messages API has no JSON response mode.
const jsonPrefill = "{"

type prefillKey struct{}

// AnthropicAdapter talks to the Anthropic Messages API.
type AnthropicAdapter struct {
	name   string
	cfg    config.ProviderConfig
	client *http.Client
}

func NewAnthropicAdapter(name string, cfg config.ProviderConfig, client *http.Client) *AnthropicAdapter {
	return &AnthropicAdapter{name: name, cfg: cfg, client: client}
}

func (a *AnthropicAdapter) Name() string { return a.name }

// TransformRequest builds a messages call. In JSON mode the assistant turn is
// prefilled and the prefill is remembered on the request context so
// TransformResponse can restore it.
func (a *AnthropicAdapter) TransformRequest(ctx context.Context, req *types.GenerateRequest) (*http.Request, error) {
	body := anthropicRequestBody{
		Model:       req.Model,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		System:      req.System,
		MaxTokens:   defaultAnthropicMaxTokens,
		Temperature: req.Temperature,
	}
	if req.MaxTokens != nil {
		body.MaxTokens = *req.MaxTokens
	}
	if req.JSONMode {
		body.Messages = append(body.Messages, anthropicMessage{Role: "assistant", Content: jsonPrefill})
		ctx = context.WithValue(ctx, prefillKey{}, jsonPrefill)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/messages", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	setHeaders(httpReq, a.cfg)
	httpReq.Header.Set("x-api-key", a.cfg.APIKey)
	version := a.cfg.APIVersion
	if version == "" {
		version = defaultAnthropicVersion
	}
	httpReq.Header.Set("anthropic-version", version)

	return httpReq, nil
}

func (a *AnthropicAdapter) TransformResponse(_ context.Context, resp *http.Response) (*types.GenerateResponse, error) {
	body, err := readBody(a.name, resp)
	if err != nil {
		return nil, err
	}

	var antResp anthropicResponseBody
	if err := json.Unmarshal(body, &antResp); err != nil {
		return nil, fmt.Errorf("unmarshal anthropic response: %w", err)
	}

	var text strings.Builder
	if resp.Request != nil {
		if prefill, ok := resp.Request.Context().Value(prefillKey{}).(string); ok {
			text.WriteString(prefill)
		}
	}
	for _, block := range antResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &types.GenerateResponse{
		Model:        antResp.Model,
		Provider:     a.name,
		Text:         text.String(),
		FinishReason: mapStopReason(antResp.StopReason),
		Usage: types.Usage{
			PromptTokens:     antResp.Usage.InputTokens,
			CompletionTokens: antResp.Usage.OutputTokens,
			TotalTokens:      antResp.Usage.InputTokens + antResp.Usage.OutputTokens,
		},
	}, nil
}

func (a *AnthropicAdapter) SendRequest(req *http.Request) (*http.Response, error) {
	return a.client.Do(req)
}

func mapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "refusal":
		return "content_filter"
	default:
		return reason
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequestBody struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicResponseBody struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
