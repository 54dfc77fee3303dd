package catalog

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services"
)

// DefaultMaxTokens is the output token budget of every default provider
const DefaultMaxTokens = 8192

// DefaultSpecs returns the built-in provider catalog
func DefaultSpecs() []models.ProviderSpec {
	return []models.ProviderSpec{
		{
			ID:       models.ProviderOpenAI,
			Name:     "OpenAI GPT-5",
			Selected: true,
			Settings: models.ProviderSettings{Model: "gpt-5", MaxTokens: DefaultMaxTokens},
		},
		{
			ID:       models.ProviderAnthropic,
			Name:     "Claude Opus 4.1",
			Selected: true,
			Settings: models.ProviderSettings{Model: "claude-opus-4-1-20250805", MaxTokens: DefaultMaxTokens},
		},
		{
			ID:       models.ProviderGoogle,
			Name:     "Google Gemini",
			Settings: models.ProviderSettings{Model: "gemini-2.5-pro", MaxTokens: DefaultMaxTokens},
		},
		{
			ID:       models.ProviderDeepSeek,
			Name:     "DeepSeek V3.1",
			Settings: models.ProviderSettings{Model: "deepseek-chat", MaxTokens: DefaultMaxTokens},
		},
	}
}

// SettingsUpdate is a partial update of provider settings; nil fields are kept
type SettingsUpdate struct {
	Model     *string
	MaxTokens *int
}

// Catalog holds the provider specs a user can select from
type Catalog struct {
	mu    sync.RWMutex
	specs []models.ProviderSpec
}

// New creates a catalog from specs, or from DefaultSpecs when specs is empty
func New(specs []models.ProviderSpec) *Catalog {
	if len(specs) == 0 {
		specs = DefaultSpecs()
	}
	return &Catalog{specs: clone(specs)}
}

// List returns all specs in catalog order
func (c *Catalog) List() []models.ProviderSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.specs)
}

// Selected returns the selected specs in catalog order
func (c *Catalog) Selected() []models.ProviderSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.SelectedProviders(c.specs)
}

// Get returns the spec with the given id
func (c *Catalog) Get(id string) (models.ProviderSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.index(id)
	if i < 0 {
		return models.ProviderSpec{}, unknown(id)
	}
	return c.specs[i], nil
}

// Toggle flips the selection of a provider and returns the updated spec
func (c *Catalog) Toggle(id string) (models.ProviderSpec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return models.ProviderSpec{}, unknown(id)
	}
	c.specs[i].Selected = !c.specs[i].Selected
	return c.specs[i], nil
}

// UpdateSettings merges update into a provider's settings
func (c *Catalog) UpdateSettings(id string, update SettingsUpdate) (models.ProviderSpec, error) {
	if update.MaxTokens != nil && *update.MaxTokens < 0 {
		return models.ProviderSpec{}, services.NewDomainError(services.ErrorTypeValidation, "max tokens cannot be negative", nil).
			WithDetail("provider", id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return models.ProviderSpec{}, unknown(id)
	}
	if update.Model != nil {
		c.specs[i].Settings.Model = strings.TrimSpace(*update.Model)
	}
	if update.MaxTokens != nil {
		c.specs[i].Settings.MaxTokens = *update.MaxTokens
	}
	return c.specs[i], nil
}

// Replace swaps the whole catalog. Ids must be non-empty and unique.
func (c *Catalog) Replace(specs []models.ProviderSpec) error {
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.ID == "" {
			return services.NewDomainError(services.ErrorTypeValidation, "provider id cannot be empty", nil)
		}
		if seen[spec.ID] {
			return services.NewDomainError(services.ErrorTypeValidation, "duplicate provider id", nil).
				WithDetail("provider", spec.ID)
		}
		seen[spec.ID] = true
	}

	c.mu.Lock()
	c.specs = clone(specs)
	c.mu.Unlock()
	return nil
}

func (c *Catalog) index(id string) int {
	for i, spec := range c.specs {
		if spec.ID == id {
			return i
		}
	}
	return -1
}

func unknown(id string) error {
	return fmt.Errorf("provider %q: %w", id, services.ErrUnknownProvider)
}

func clone(specs []models.ProviderSpec) []models.ProviderSpec {
	out := make([]models.ProviderSpec, len(specs))
	copy(out, specs)
	return out
}

type fileCatalog struct {
	Providers []models.ProviderSpec `yaml:"providers"`
}

// LoadFile reads a YAML catalog. Fields left empty for a built-in provider
// are filled from DefaultSpecs. An empty path yields DefaultSpecs.
func LoadFile(path string) ([]models.ProviderSpec, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSpecs(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider catalog: %w", err)
	}

	var file fileCatalog
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse provider catalog: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("provider catalog %s lists no providers", path)
	}

	defaults := make(map[string]models.ProviderSpec)
	for _, spec := range DefaultSpecs() {
		defaults[spec.ID] = spec
	}

	specs := make([]models.ProviderSpec, 0, len(file.Providers))
	for _, spec := range file.Providers {
		if def, ok := defaults[spec.ID]; ok {
			if spec.Name == "" {
				spec.Name = def.Name
			}
			if spec.Settings.Model == "" {
				spec.Settings.Model = def.Settings.Model
			}
			if spec.Settings.MaxTokens == 0 {
				spec.Settings.MaxTokens = def.Settings.MaxTokens
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
