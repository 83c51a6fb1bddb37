package llm

import (
	"errors"
	"fmt"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/llm/adapters"
)

var ErrNoProvider = errors.New("no available provider")

// Route is the resolved target for one generation call.
type Route struct {
	Adapter adapters.ProviderAdapter
	Model   string
	Mapping config.ModelMapping
}

// ResolveRoute picks the primary provider for a model alias, or the first
// fallback whose circuit is not open. This happens before the call; a
// failed call is not rerouted.
func ResolveRoute(modelsCfg *config.ModelsConfig, registry *Registry, health *HealthTracker, alias string) (Route, error) {
	if modelsCfg == nil {
		return Route{}, fmt.Errorf("unknown model: %s", alias)
	}
	mapping, ok := modelsCfg.Models[alias]
	if !ok {
		return Route{}, fmt.Errorf("unknown model: %s", alias)
	}

	candidates := append([]config.ProviderRoute{mapping.Primary}, mapping.Fallback...)
	for _, c := range candidates {
		adapter, ok := registry.Get(c.Provider)
		if !ok {
			continue
		}
		if health != nil && !health.IsAvailable(c.Provider) {
			continue
		}
		return Route{Adapter: adapter, Model: c.Model, Mapping: mapping}, nil
	}

	return Route{}, fmt.Errorf("%w for model %s", ErrNoProvider, alias)
}
