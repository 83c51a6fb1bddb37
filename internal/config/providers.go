package config

import "time"

// Provider types. Any OpenAI-compatible endpoint uses ProviderOpenAI with
// its own base_url.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const defaultConnLimit = 10

// ProvidersConfig is providers.yaml, keyed by the provider name that model
// routes refer to.
type ProvidersConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	Type    string `yaml:"type"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// APIVersion is sent as anthropic-version; ignored by other types.
	APIVersion    string            `yaml:"api_version,omitempty"`
	MaxConcurrent int               `yaml:"max_concurrent"`
	Timeout       time.Duration     `yaml:"timeout"`
	Headers       map[string]string `yaml:"headers,omitempty"`
}

// ConnLimit is the connection cap for the provider's HTTP client.
func (p ProviderConfig) ConnLimit() int {
	if p.MaxConcurrent > 0 {
		return p.MaxConcurrent
	}
	return defaultConnLimit
}

func knownProviderType(t string) bool {
	switch t {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		return true
	}
	return false
}
