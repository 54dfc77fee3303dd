package models

// Known provider identifiers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderDeepSeek  = "deepseek"
)

// KnownProviders is the fixed set of provider identifiers, in catalog order
var KnownProviders = []string{ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderDeepSeek}

// IsKnownProvider reports whether id belongs to the fixed provider set
func IsKnownProvider(id string) bool {
	for _, known := range KnownProviders {
		if known == id {
			return true
		}
	}
	return false
}

// ProviderSettings holds the tunable generation settings of a provider
type ProviderSettings struct {
	Model     string `json:"model" yaml:"model"`
	MaxTokens int    `json:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
}

// ProviderSpec describes a provider the user can select for a dispatch round
type ProviderSpec struct {
	ID       string           `json:"id" yaml:"id" validate:"required"`
	Name     string           `json:"name" yaml:"name"`
	Selected bool             `json:"selected" yaml:"selected"`
	Settings ProviderSettings `json:"settings" yaml:"settings"`
}

// SelectedProviders returns the selected specs, preserving order
func SelectedProviders(specs []ProviderSpec) []ProviderSpec {
	selected := make([]ProviderSpec, 0, len(specs))
	for _, spec := range specs {
		if spec.Selected {
			selected = append(selected, spec)
		}
	}
	return selected
}
