package llm

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/llm/adapters"
)

// Registry manages provider adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]adapters.ProviderAdapter
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]adapters.ProviderAdapter),
	}
}

func (r *Registry) Register(name string, adapter adapters.ProviderAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = adapter
}

func (r *Registry) Get(name string) (adapters.ProviderAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Replace swaps in the adapters of other. Used on config reload so holders
// of r see the new providers.
func (r *Registry) Replace(other *Registry) {
	other.mu.RLock()
	next := make(map[string]adapters.ProviderAdapter, len(other.adapters))
	for k, v := range other.adapters {
		next[k] = v
	}
	other.mu.RUnlock()

	r.mu.Lock()
	r.adapters = next
	r.mu.Unlock()
}

// BuildFromConfig creates one adapter per configured provider, each with
// its own connection-capped HTTP client. Providers of an unknown type are
// skipped; the loader rejects them before they get here.
func BuildFromConfig(provCfg *config.ProvidersConfig) *Registry {
	registry := NewRegistry()
	if provCfg == nil {
		return registry
	}
	for name, cfg := range provCfg.Providers {
		maxConns := cfg.ConnLimit()
		client := &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        maxConns,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		}

		var adapter adapters.ProviderAdapter
		switch cfg.Type {
		case config.ProviderGemini:
			adapter = adapters.NewGeminiAdapter(name, cfg, client)
		case config.ProviderOpenAI:
			adapter = adapters.NewOpenAIAdapter(name, cfg, client)
		case config.ProviderAnthropic:
			adapter = adapters.NewAnthropicAdapter(name, cfg, client)
		default:
			slog.Warn("skipping provider with unknown type", "provider", name, "type", cfg.Type)
			continue
		}
		registry.Register(name, adapter)
	}
	return registry
}
