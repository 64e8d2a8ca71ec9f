package llm

import (
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// Schema is the subset of JSON Schema that providers accept as a response
// schema. Validation keywords such as minimum are ignored here and enforced
// after generation.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// ParseSchema decodes a JSON Schema document.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse response schema: %w", err)
	}
	if s.Type == "" {
		return nil, fmt.Errorf("parse response schema: missing root type")
	}
	return &s, nil
}

func (s *Schema) toGenai() (*genai.Schema, error) {
	if s == nil {
		return nil, nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}

	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", s.Type)
	}

	if out.Type == genai.TypeString && len(s.Enum) > 0 {
		out.Format = "enum"
	}
	if s.Items != nil {
		items, err := s.Items.toGenai()
		if err != nil {
			return nil, err
		}
		out.Items = items
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			p, err := prop.toGenai()
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			out.Properties[name] = p
		}
	}
	return out, nil
}
