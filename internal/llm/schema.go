package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"google.golang.org/genai"
)

var compiled sync.Map // schema name -> *jsonschema.Schema

// validate checks raw against s, returning an Invalid error on mismatch.
func validate(s *Schema, raw json.RawMessage) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &Error{Kind: Invalid, Body: raw, Err: fmt.Errorf("decode reply: %w", err)}
	}
	sch, err := compile(s)
	if err != nil {
		return &Error{Kind: Invalid, Body: raw, Err: err}
	}
	if err := sch.Validate(doc); err != nil {
		return &Error{Kind: Invalid, Body: raw, Err: err}
	}
	return nil
}

func compile(s *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(s.Name); ok {
		return v.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON values, not Go literals.
	def, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode schema %s: %w", s.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", s.Name, err)
	}

	url := "mem://" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", s.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", s.Name, err)
	}
	compiled.Store(s.Name, sch)
	return sch, nil
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// geminiSchema converts the subset of JSON Schema that Gemini's response
// schema understands. Unsupported keywords are dropped.
func geminiSchema(def map[string]any) *genai.Schema {
	out := &genai.Schema{Type: genai.TypeString}
	if t, ok := def["type"].(string); ok {
		if gt, ok := geminiTypes[t]; ok {
			out.Type = gt
		}
	}
	out.Description, _ = def["description"].(string)

	if props, ok := def["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pd, ok := p.(map[string]any); ok {
				out.Properties[name] = geminiSchema(pd)
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		out.Items = geminiSchema(items)
	}
	out.Required = stringList(def["required"])
	out.Enum = stringList(def["enum"])
	return out
}

func stringList(v any) []string {
	list, _ := v.([]any)
	var out []string
	for _, x := range list {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
