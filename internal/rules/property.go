package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Property is the part of a rental property record that feeds rule derivation.
type Property struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Units            []Unit   `json:"units,omitempty" yaml:"units,omitempty"`
	Tenants          []string `json:"tenants,omitempty" yaml:"tenants,omitempty"`
	Lenders          []string `json:"lenders,omitempty" yaml:"lenders,omitempty"`
	UtilityProviders []string `json:"utilityProviders,omitempty" yaml:"utility_providers,omitempty"`
	Vendors          []Vendor `json:"vendors,omitempty" yaml:"vendors,omitempty"`
}

// Unit is a rentable unit within a property. Tenants of a unit are
// attributed to the unit's cost center.
type Unit struct {
	ID      string   `json:"id" yaml:"id"`
	Tenants []string `json:"tenants,omitempty" yaml:"tenants,omitempty"`
}

// Vendor is a service provider used at a property.
type Vendor struct {
	Name    string `json:"name" yaml:"name"`
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
}

// Validate checks the fields rule derivation depends on.
func (p Property) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("property id is required")
	}
	for i, u := range p.Units {
		if strings.TrimSpace(u.ID) == "" {
			return fmt.Errorf("property %s: unit %d has no id", p.ID, i)
		}
	}
	return nil
}

// ParsePropertiesYAML reads `properties: [...]` documents used by the CLI.
func ParsePropertiesYAML(data []byte) ([]Property, error) {
	var doc struct {
		Properties []Property `yaml:"properties"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ParsePropertiesYAML: %w", err)
	}
	for _, p := range doc.Properties {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("ParsePropertiesYAML: %w", err)
		}
	}
	return doc.Properties, nil
}
