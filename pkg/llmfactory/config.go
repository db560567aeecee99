package llmfactory

import (
	"slices"
)

// Provider types
const (
	ProviderTypeBedrock   = "BEDROCK"
	ProviderTypeAnthropic = "ANTHROPIC"
)

// ProviderConfig specifies the LLM provider
type ProviderConfig struct {
	Name string `json:"name" yaml:"name"`
	// Type specifies the type of API to use: BEDROCK|ANTHROPIC
	Type            string          `json:"type" yaml:"type"`
	Token           string          `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel    string          `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string        `json:"available_models,omitempty" yaml:"available_models,omitempty"`
	Bedrock         BedrockConfig   `json:"bedrock" yaml:"bedrock"`
	Anthropic       AnthropicConfig `json:"anthropic" yaml:"anthropic"`
}

// BedrockConfig specifies AWS options
type BedrockConfig struct {
	Region       string `json:"region,omitempty" yaml:"region,omitempty"`
	Profile      string `json:"profile,omitempty" yaml:"profile,omitempty"`
	BaseEndpoint string `json:"base_endpoint,omitempty" yaml:"base_endpoint,omitempty"`
}

// AnthropicConfig specifies Anthropic API options
type AnthropicConfig struct {
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// FindModel returns the first of the models that is available,
// or the default model.
func (c *ProviderConfig) FindModel(models ...string) string {
	for _, model := range models {
		if slices.Contains(c.AvailableModels, model) {
			return model
		}
	}
	return c.DefaultModel
}
