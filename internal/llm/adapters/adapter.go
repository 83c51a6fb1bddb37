package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/types"
)

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 4 << 20

// ProviderAdapter transforms requests/responses between the canonical
// generate format and provider-specific API formats.
type ProviderAdapter interface {
	// Name is the provider name from providers.yaml.
	Name() string
	TransformRequest(ctx context.Context, req *types.GenerateRequest) (*http.Request, error)
	TransformResponse(ctx context.Context, resp *http.Response) (*types.GenerateResponse, error)
	// SendRequest sends an HTTP request using the provider's configured client.
	SendRequest(req *http.Request) (*http.Response, error)
}

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ProviderFault reports whether the status points at the provider (rate
// limited or failing) rather than at the request. Only provider faults
// count against the circuit breaker.
func (e *StatusError) ProviderFault() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func readBody(provider string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

func setHeaders(req *http.Request, cfg config.ProviderConfig) {
	req.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
}
