package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/types"
)

// GeminiAdapter handles communication with the Gemini generateContent API.
type GeminiAdapter struct {
	name   string
	cfg    config.ProviderConfig
	client *http.Client
}

func NewGeminiAdapter(name string, cfg config.ProviderConfig, client *http.Client) *GeminiAdapter {
	return &GeminiAdapter{name: name, cfg: cfg, client: client}
}

func (a *GeminiAdapter) Name() string { return a.name }

func (a *GeminiAdapter) TransformRequest(ctx context.Context, req *types.GenerateRequest) (*http.Request, error) {
	body := geminiRequestBody{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.JSONMode {
		body.GenerationConfig.ResponseMIMEType = "application/json"
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", a.cfg.BaseURL, url.PathEscape(req.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	setHeaders(httpReq, a.cfg)
	httpReq.Header.Set("x-goog-api-key", a.cfg.APIKey)

	return httpReq, nil
}

func (a *GeminiAdapter) TransformResponse(_ context.Context, resp *http.Response) (*types.GenerateResponse, error) {
	body, err := readBody(a.name, resp)
	if err != nil {
		return nil, err
	}

	var gemResp geminiResponseBody
	if err := json.Unmarshal(body, &gemResp); err != nil {
		return nil, fmt.Errorf("unmarshal gemini response: %w", err)
	}

	out := &types.GenerateResponse{
		Model:    gemResp.ModelVersion,
		Provider: a.name,
		Usage: types.Usage{
			PromptTokens:     gemResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: gemResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gemResp.UsageMetadata.TotalTokenCount,
		},
	}
	// A blocked prompt comes back with no candidates; the caller treats
	// the empty text as an empty response.
	if len(gemResp.Candidates) > 0 {
		c := gemResp.Candidates[0]
		var text strings.Builder
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
		out.Text = text.String()
		out.FinishReason = strings.ToLower(c.FinishReason)
	}
	return out, nil
}

func (a *GeminiAdapter) SendRequest(req *http.Request) (*http.Response, error) {
	return a.client.Do(req)
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

type geminiRequestBody struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponseBody struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}
