package catalog

import (
	"fmt"
	"os"

	"github.com/hazyhaar/wardrobe/pkg/scoring"
	"gopkg.in/yaml.v3"
)

// productsFile is the import format: a top-level "products" list. JSON files
// parse too, JSON being a subset of YAML.
type productsFile struct {
	Products []scoring.Candidate `yaml:"products"`
}

// LoadProductsFile reads and validates a YAML or JSON products file.
func LoadProductsFile(path string) ([]scoring.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products file: %w", err)
	}
	return ParseProducts(data)
}

// ParseProducts decodes a products document.
func ParseProducts(data []byte) ([]scoring.Candidate, error) {
	var f productsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse products: %w", err)
	}
	seen := make(map[string]bool, len(f.Products))
	for i, p := range f.Products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("product %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}
	return f.Products, nil
}
