package traits

import (
	_ "embed"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/satriahrh/sikap/domain/entities"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the ordered, read-only list of trait definitions
type Catalog struct {
	Traits []entities.Trait `yaml:"traits"`
}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalog)
}

// LoadCatalog parses and validates a YAML trait catalog
func LoadCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse trait catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trait catalog: %w", err)
	}
	return &catalog, nil
}

// Names returns the trait names in declaration order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Traits))
	for i, t := range c.Traits {
		names[i] = t.Name
	}
	return names
}

// Validate checks that every trait is well formed and uniquely named
func (c *Catalog) Validate() error {
	if len(c.Traits) == 0 {
		return errors.New("catalog has no traits")
	}

	seen := make(map[string]bool, len(c.Traits))
	for i, t := range c.Traits {
		if t.Name == "" {
			return fmt.Errorf("trait %d has no name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate trait %q", t.Name)
		}
		seen[t.Name] = true

		if len(t.Base) == 0 {
			return fmt.Errorf("trait %q has no base emotions", t.Name)
		}
		if err := validateWeights(t.Base); err != nil {
			return fmt.Errorf("trait %q base: %w", t.Name, err)
		}
		if t.Negative != nil {
			if t.Negative.Name == "" {
				return fmt.Errorf("trait %q negative group has no name", t.Name)
			}
			if err := validateWeights(t.Negative.Weights); err != nil {
				return fmt.Errorf("trait %q negative group: %w", t.Name, err)
			}
		}
		if err := validateWeights(t.Volatility); err != nil {
			return fmt.Errorf("trait %q volatility: %w", t.Name, err)
		}
		for _, combo := range t.Combinations {
			if combo.A == "" || combo.B == "" {
				return fmt.Errorf("trait %q has a combination with an empty emotion", t.Name)
			}
			if !finite(combo.Weight) {
				return fmt.Errorf("trait %q combination %s/%s has a non-finite weight", t.Name, combo.A, combo.B)
			}
		}
	}
	return nil
}

func validateWeights(weights []entities.EmotionWeight) error {
	for _, w := range weights {
		if w.Emotion == "" {
			return errors.New("empty emotion name")
		}
		if !finite(w.Weight) {
			return fmt.Errorf("emotion %q has a non-finite weight", w.Emotion)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
