package config

// ModelsConfig maps model aliases used by the generation flows to concrete
// provider routes, plus per-model pricing for cost estimation.
type ModelsConfig struct {
	Models  map[string]ModelMapping          `yaml:"models"`
	Pricing map[string]map[string]PriceEntry `yaml:"pricing"`
}

type ModelMapping struct {
	DisplayName string          `yaml:"display_name"`
	Primary     ProviderRoute   `yaml:"primary"`
	Fallback    []ProviderRoute `yaml:"fallback"`
	Temperature *float64        `yaml:"temperature,omitempty"`
	MaxTokens   *int            `yaml:"max_tokens,omitempty"`
}

type ProviderRoute struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// PriceEntry is USD per million tokens.
type PriceEntry struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// Price looks up pricing for a provider/model pair.
func (m *ModelsConfig) Price(provider, model string) (PriceEntry, bool) {
	if m == nil {
		return PriceEntry{}, false
	}
	byModel, ok := m.Pricing[provider]
	if !ok {
		return PriceEntry{}, false
	}
	p, ok := byModel[model]
	return p, ok
}
