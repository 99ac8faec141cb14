package generator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema is the subset of JSON Schema this generator understands. Property
// order from the source document is preserved so emitted code is stable.
type Schema struct {
	Title       string
	Description string
	Type        string
	Format      string
	Properties  []Property
	Required    []string
	Items       *Schema
}

// Property is a named member of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// IsObject reports whether the schema describes an object. A missing type
// with properties counts: many schemas omit the explicit "type": "object".
func (s *Schema) IsObject() bool {
	return s.Type == "object" || (s.Type == "" && len(s.Properties) > 0)
}

// isRequired reports whether the named property is in the required list.
func (s *Schema) isRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// ParseFile reads and parses a schema document. YAML and JSON sources both
// go through the yaml decoder, JSON being a YAML subset.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a schema document from bytes.
func Parse(data []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("schema document is empty")
	}
	return parseNode(doc.Content[0])
}

// parseNode walks a mapping node, keeping the source order of properties.
func parseNode(node *yaml.Node) (*Schema, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("schema node at line %d is not a mapping", node.Line)
	}

	s := &Schema{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		switch key {
		case "title":
			s.Title = value.Value
		case "description":
			s.Description = value.Value
		case "format":
			s.Format = value.Value
		case "type":
			t, err := parseType(value)
			if err != nil {
				return nil, err
			}
			s.Type = t
		case "properties":
			if value.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("properties at line %d is not a mapping", value.Line)
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				child, err := parseNode(value.Content[j+1])
				if err != nil {
					return nil, err
				}
				s.Properties = append(s.Properties, Property{Name: value.Content[j].Value, Schema: child})
			}
		case "required":
			if value.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("required at line %d is not a list", value.Line)
			}
			for _, item := range value.Content {
				s.Required = append(s.Required, item.Value)
			}
		case "items":
			child, err := parseNode(value)
			if err != nil {
				return nil, err
			}
			s.Items = child
		}
	}
	return s, nil
}

// parseType accepts a scalar type or a union list. In a union the first
// non-null entry wins; "null" only signals optionality.
func parseType(node *yaml.Node) (string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value, nil
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Value != "null" {
				return item.Value, nil
			}
		}
		return "", nil
	default:
		return "", fmt.Errorf("type at line %d must be a string or a list", node.Line)
	}
}
