// Package parser reads and writes program manifests as YAML.
package parser

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/domain/ports"
)

// YamlManifestParser implements ManifestParser for YAML. Documents are
// bridged through the manifest's JSON form, so payload schemas appear as
// nested YAML mappings rather than opaque strings.
type YamlManifestParser struct{}

// NewYamlManifestParser creates a new YamlManifestParser.
func NewYamlManifestParser() ports.ManifestParser {
	return &YamlManifestParser{}
}

// Parse unmarshals YAML bytes into a Manifest.
func (p *YamlManifestParser) Parse(data []byte) (*entities.Manifest, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest yaml: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("manifest is empty")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert manifest: %w", err)
	}

	var manifest entities.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &manifest, nil
}

// Encode marshals m as YAML.
func (p *YamlManifestParser) Encode(m *entities.Manifest) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert manifest: %w", err)
	}
	setBlockStyle(&doc)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest yaml: %w", err)
	}
	return out, nil
}

// setBlockStyle clears the flow style inherited from the JSON source so
// the output reads as ordinary YAML. Key order is preserved.
func setBlockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		setBlockStyle(c)
	}
}
