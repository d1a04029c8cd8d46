package node

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// CredentialRequirement declares a credential type the node can use.
type CredentialRequirement struct {
	Name           string          `json:"name" yaml:"name"`
	Required       bool            `json:"required,omitempty" yaml:"required,omitempty"`
	DisplayOptions *DisplayOptions `json:"displayOptions,omitempty" yaml:"displayOptions,omitempty"`
}

// Documentation links a node to its user docs.
type Documentation struct {
	URL string `json:"url" yaml:"url"`
}

// Codex holds the categorisation shown in the host's node picker.
type Codex struct {
	Categories    []string            `json:"categories,omitempty" yaml:"categories,omitempty"`
	Subcategories map[string][]string `json:"subcategories,omitempty" yaml:"subcategories,omitempty"`
	Resources     struct {
		PrimaryDocumentation []Documentation `json:"primaryDocumentation,omitempty" yaml:"primaryDocumentation,omitempty"`
	} `json:"resources" yaml:"resources"`
}

// Description is the static metadata a node type registers with the host.
type Description struct {
	DisplayName string                  `json:"displayName" yaml:"displayName"`
	Name        string                  `json:"name" yaml:"name"`
	Icon        string                  `json:"icon,omitempty" yaml:"icon,omitempty"`
	Group       []string                `json:"group,omitempty" yaml:"group,omitempty"`
	Version     int                     `json:"version" yaml:"version"`
	Description string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Defaults    map[string]any          `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Codex       *Codex                  `json:"codex,omitempty" yaml:"codex,omitempty"`
	Inputs      []ConnectionType        `json:"inputs" yaml:"inputs"`
	Outputs     []ConnectionType        `json:"outputs" yaml:"outputs"`
	OutputNames []string                `json:"outputNames,omitempty" yaml:"outputNames,omitempty"`
	Credentials []CredentialRequirement `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Properties  []Property              `json:"properties" yaml:"properties"`
}

// Property returns the named property, searching collections too.
func (d *Description) Property(name string) (*Property, bool) {
	return Find(d.Properties, name)
}

// ParseDescription decodes a YAML node description. Unknown keys are
// rejected so that typos in the embedded definitions fail loudly.
func ParseDescription(data []byte) (*Description, error) {
	var desc Description
	if err := yaml.UnmarshalWithOptions(data, &desc, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("invalid node description: %w", err)
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("invalid node description: name is required")
	}
	if desc.Version == 0 {
		desc.Version = 1
	}
	return &desc, nil
}

// MustParseDescription is like ParseDescription but panics on error. It is
// meant for descriptions embedded in the binary.
func MustParseDescription(data []byte) *Description {
	desc, err := ParseDescription(data)
	if err != nil {
		panic(err)
	}
	return desc
}

// YAML renders the description back to YAML.
func (d *Description) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}
