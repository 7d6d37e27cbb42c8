// Package schema generates JSON schemas describing command and channel
// payload types for the program manifest.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

func newReflector(t reflect.Type) *jsonschema.Reflector {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return &jsonschema.Reflector{
		// Only named structs have a definition to expand inline.
		ExpandedStruct: t.Kind() == reflect.Struct && t.Name() != "",
	}
}

// GenerateSchema creates a JSON schema from a Go value.
// It uses the `invopop/jsonschema` library to reflect on the value
// and generate a standard JSON Schema (Draft 2020-12).
func GenerateSchema(v interface{}) ([]byte, error) {
	return GenerateSchemaForType(reflect.TypeOf(v))
}

// GenerateSchemaForType creates a JSON schema for t. A nil type, as
// produced by reflect.TypeOf(nil), yields nil.
func GenerateSchemaForType(t reflect.Type) ([]byte, error) {
	if t == nil {
		return nil, nil
	}
	return marshal(newReflector(t).ReflectFromType(t))
}

func marshal(s *jsonschema.Schema) ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return jsonBytes, nil
}
