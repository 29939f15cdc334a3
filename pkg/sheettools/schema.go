package sheettools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// generateSchema mirrors haasonsaas-nexus's internal/config.JSONSchema
// use of invopop/jsonschema: a struct's json/jsonschema tags become a
// flat object schema with properties and a required list, suitable for
// an LLM function-calling payload.
func generateSchema[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	delete(m, "$schema")
	delete(m, "$id")

	if m["type"] != "object" {
		return m, nil
	}
	result := map[string]any{"type": "object", "properties": m["properties"]}
	if req, ok := m["required"]; ok {
		result["required"] = req
	}
	if addProps, ok := m["additionalProperties"]; ok {
		result["additionalProperties"] = addProps
	}
	return result, nil
}

// mapToStruct round-trips args through JSON to populate a typed struct,
// the same technique functiontool/marshal.go uses.
func mapToStruct(args map[string]any, out any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}
	return json.Unmarshal(data, out)
}
