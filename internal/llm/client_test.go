package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Client, *HealthTracker) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	registry := BuildFromConfig(&config.ProvidersConfig{Providers: map[string]config.ProviderConfig{
		"gemini": {Type: "gemini", BaseURL: srv.URL, APIKey: "k"},
	}})
	models := &config.ModelsConfig{
		Models: map[string]config.ModelMapping{
			"content-default": {Primary: config.ProviderRoute{Provider: "gemini", Model: "gemini-1.5-flash"}},
		},
		Pricing: map[string]map[string]config.PriceEntry{
			"gemini": {"gemini-1.5-flash": {Input: 0.1, Output: 0.4}},
		},
	}
	health := NewHealthTracker(2, time.Hour)
	return NewClient(registry, health, func() *config.ModelsConfig { return models }, timeout), health
}

const geminiOK = `{"candidates":[{"content":{"parts":[{"text":"{}"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":1000,"candidatesTokenCount":500,"totalTokenCount":1500}}`

func TestClient_Generate(t *testing.T) {
	client, health := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, geminiOK)
	}, time.Second)

	resp, err := client.Generate(context.Background(), "content-default", types.GenerateRequest{
		RequestID: "req_1",
		Prompt:    "Describe Kyoto",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "{}" || resp.RequestID != "req_1" || resp.Provider != "gemini" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Model != "gemini-1.5-flash" {
		t.Errorf("expected routed model name, got %s", resp.Model)
	}
	// 1000 * 0.1 / 1e6 + 500 * 0.4 / 1e6
	if want := 0.0003; resp.EstimatedCostUSD < want-1e-12 || resp.EstimatedCostUSD > want+1e-12 {
		t.Errorf("expected cost %v, got %v", want, resp.EstimatedCostUSD)
	}
	if health.Status()["gemini"].State != "closed" {
		t.Error("expected closed circuit after success")
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	start := time.Now()
	_, err := client.Generate(context.Background(), "content-default", types.GenerateRequest{Prompt: "p"})
	if !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expected call to be cut off near the deadline, took %s", elapsed)
	}
}

func TestClient_UpstreamErrorOpensCircuit(t *testing.T) {
	var calls atomic.Int32
	client, health := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, time.Second)

	for i := 0; i < 2; i++ {
		_, err := client.Generate(context.Background(), "content-default", types.GenerateRequest{Prompt: "p"})
		var upErr *UpstreamError
		if !errors.As(err, &upErr) {
			t.Fatalf("expected UpstreamError, got %v", err)
		}
	}
	if health.Status()["gemini"].State != "open" {
		t.Errorf("expected open circuit, got %v", health.Status())
	}

	_, err := client.Generate(context.Background(), "content-default", types.GenerateRequest{Prompt: "p"})
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider with open circuit, got %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected exactly 2 upstream calls, got %d", n)
	}
}

func TestClient_BadRequestDoesNotTripCircuit(t *testing.T) {
	client, health := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}, time.Second)

	for i := 0; i < 3; i++ {
		client.Generate(context.Background(), "content-default", types.GenerateRequest{Prompt: "p"})
	}
	if health.Status()["gemini"].State != "closed" {
		t.Errorf("expected closed circuit after client errors, got %v", health.Status())
	}
}

// A half-open trial call that comes back 4xx must settle the circuit,
// otherwise the provider stays unroutable forever.
func TestClient_HalfOpenBadRequestRecoversCircuit(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		io.WriteString(w, geminiOK)
	}, time.Second)
	health := NewHealthTracker(1, 20*time.Millisecond)
	client.health = health

	generate := func() error {
		_, err := client.Generate(context.Background(), "content-default", types.GenerateRequest{Prompt: "p"})
		return err
	}

	if err := generate(); err == nil {
		t.Fatal("expected the 500 to fail")
	}
	if got := health.Status()["gemini"].State; got != "open" {
		t.Fatalf("expected open circuit after 500, got %s", got)
	}

	time.Sleep(30 * time.Millisecond)
	status.Store(http.StatusBadRequest)
	var upErr *UpstreamError
	if err := generate(); !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError for the 400, got %v", err)
	}
	if got := health.Status()["gemini"].State; got != "closed" {
		t.Errorf("expected a 400 trial outcome to close the circuit, got %s", got)
	}

	status.Store(http.StatusOK)
	if err := generate(); err != nil {
		t.Errorf("expected the provider to be routable again, got %v", err)
	}
}

func TestClient_UnreadableBodyReleasesTrialCall(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			io.WriteString(w, "not json")
			return
		}
		io.WriteString(w, geminiOK)
	}, time.Second)
	health := NewHealthTracker(1, 20*time.Millisecond)
	client.health = health

	health.RecordFailure("gemini")
	time.Sleep(30 * time.Millisecond)

	_, err := client.Generate(context.Background(), "content-default", types.GenerateRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected a decode failure")
	}
	if got := health.Status()["gemini"].State; got != "half_open" {
		t.Errorf("expected the circuit to stay half-open after a decode failure, got %s", got)
	}

	broken.Store(false)
	if _, err := client.Generate(context.Background(), "content-default", types.GenerateRequest{Prompt: "p"}); err != nil {
		t.Errorf("expected the released trial call to go through, got %v", err)
	}
	if got := health.Status()["gemini"].State; got != "closed" {
		t.Errorf("expected closed circuit after a successful trial call, got %s", got)
	}
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	cost := EstimateCost(&config.ModelsConfig{}, "gemini", "unknown", types.Usage{PromptTokens: 100})
	if cost != 0 {
		t.Errorf("expected zero cost, got %v", cost)
	}
	if EstimateCost(nil, "gemini", "m", types.Usage{PromptTokens: 1}) != 0 {
		t.Error("expected zero cost with nil config")
	}
}
