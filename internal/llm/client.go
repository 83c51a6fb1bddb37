// Package llm sends single-shot generation calls to the configured
// text-generation providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/llm/adapters"
	"github.com/af-corp/tourdesk/internal/telemetry"
	"github.com/af-corp/tourdesk/internal/types"
)

// ErrUpstreamTimeout is returned when the generator does not answer
// within the configured deadline.
var ErrUpstreamTimeout = errors.New("generator timed out")

// UpstreamError wraps a failed call to a provider.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Client resolves a model alias to a provider and performs one call.
// There is no retry and no streaming.
type Client struct {
	registry *Registry
	health   *HealthTracker
	models   func() *config.ModelsConfig
	timeout  time.Duration
}

func NewClient(registry *Registry, health *HealthTracker, models func() *config.ModelsConfig, timeout time.Duration) *Client {
	return &Client{
		registry: registry,
		health:   health,
		models:   models,
		timeout:  timeout,
	}
}

// Generate sends req to the provider behind alias. req.Model is replaced
// with the provider's model name.
func (c *Client) Generate(ctx context.Context, alias string, req types.GenerateRequest) (*types.GenerateResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	modelsCfg := c.models()
	route, err := ResolveRoute(modelsCfg, c.registry, c.health, alias)
	if err != nil {
		return nil, err
	}
	provider := route.Adapter.Name()

	ctx, span := telemetry.StartSpan(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", route.Model),
		attribute.String("llm.alias", alias),
	)

	req.Model = route.Model
	if req.Temperature == nil {
		req.Temperature = route.Mapping.Temperature
	}
	if req.MaxTokens == nil {
		req.MaxTokens = route.Mapping.MaxTokens
	}

	httpReq, err := route.Adapter.TransformRequest(ctx, &req)
	if err != nil {
		c.releaseTrial(provider)
		return nil, fmt.Errorf("prepare %s request: %w", provider, err)
	}

	start := time.Now()
	resp, err := c.send(ctx, route.Adapter, httpReq)
	latency := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("generator call failed",
			"request_id", req.RequestID,
			"provider", provider,
			"model", route.Model,
			"duration_ms", latency.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	resp.RequestID = req.RequestID
	resp.Provider = provider
	if resp.Model == "" {
		resp.Model = route.Model
	}
	resp.Latency = latency
	resp.EstimatedCostUSD = EstimateCost(modelsCfg, provider, route.Model, resp.Usage)

	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp, nil
}

// send performs the HTTP exchange and maps failures to ErrUpstreamTimeout
// or *UpstreamError. Every path settles the provider's circuit: transport
// errors, timeouts and provider faults count as failures, any other answer
// from the provider counts as success, and an unreadable body only releases
// a half-open trial call.
func (c *Client) send(ctx context.Context, adapter adapters.ProviderAdapter, httpReq *http.Request) (*types.GenerateResponse, error) {
	provider := adapter.Name()

	httpResp, err := adapter.SendRequest(httpReq)
	if err != nil {
		c.recordFailure(provider)
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %s after %s", ErrUpstreamTimeout, provider, c.timeout)
		}
		return nil, &UpstreamError{Provider: provider, Err: err}
	}

	resp, err := adapter.TransformResponse(ctx, httpResp)
	if err == nil {
		c.recordSuccess(provider)
		return resp, nil
	}

	var statusErr *adapters.StatusError
	switch {
	case isTimeout(ctx, err):
		c.recordFailure(provider)
		return nil, fmt.Errorf("%w: %s after %s", ErrUpstreamTimeout, provider, c.timeout)
	case errors.As(err, &statusErr) && statusErr.ProviderFault():
		c.recordFailure(provider)
	case statusErr != nil:
		// A 4xx is an answer about the request, the provider itself is up.
		c.recordSuccess(provider)
	default:
		c.releaseTrial(provider)
	}
	return nil, &UpstreamError{Provider: provider, Err: err}
}

func (c *Client) recordSuccess(provider string) {
	if c.health != nil {
		c.health.RecordSuccess(provider)
	}
}

func (c *Client) recordFailure(provider string) {
	if c.health != nil {
		c.health.RecordFailure(provider)
	}
}

func (c *Client) releaseTrial(provider string) {
	if c.health != nil {
		c.health.ReleaseTrial(provider)
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// EstimateCost prices usage with the per-million-token rates in models.yaml.
// Unknown pairs cost zero.
func EstimateCost(modelsCfg *config.ModelsConfig, provider, model string, usage types.Usage) float64 {
	price, ok := modelsCfg.Price(provider, model)
	if !ok {
		return 0
	}
	return (float64(usage.PromptTokens)*price.Input + float64(usage.CompletionTokens)*price.Output) / 1_000_000
}
