package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk description of a lexicon.
type Manifest struct {
	ID          string                `yaml:"id" json:"id"`
	Version     string                `yaml:"version" json:"version"`
	Locale      string                `yaml:"locale" json:"locale"`
	Stopwords   []string              `yaml:"stopwords" json:"-"`
	Prefixes    []string              `yaml:"prefixes" json:"-"`
	Corrections map[string]string     `yaml:"corrections" json:"-"`
	Families    map[string]FamilySpec `yaml:"families" json:"-"`
}

// FamilySpec lists the values of one keyword family. Value order is the
// caller-visible priority order. NearMiss lists the misspellings that may be
// fuzzy-corrected onto the family's triggers; it requires Fuzzy.
type FamilySpec struct {
	Fuzzy    bool        `yaml:"fuzzy"`
	NearMiss []string    `yaml:"near_miss"`
	Values   []ValueSpec `yaml:"values"`
}

// ValueSpec maps one enumeration value to its trigger phrases.
type ValueSpec struct {
	Value    string   `yaml:"value"`
	Label    string   `yaml:"label"`
	Triggers []string `yaml:"triggers"`
}

// LoadManifest reads and parses a lexicon YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest parses lexicon YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest: missing id")
	}
	return &m, nil
}
