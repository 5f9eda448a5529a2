package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONValidator checks documents against a compiled JSON schema.
type JSONValidator struct {
	schema *gojsonschema.Schema
}

// NewJSONValidator compiles schema once for repeated validation.
func NewJSONValidator(schema []byte) (*JSONValidator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &JSONValidator{schema: compiled}, nil
}

// MustJSONValidator is NewJSONValidator for schemas known at compile time.
func MustJSONValidator(schema []byte) *JSONValidator {
	v, err := NewJSONValidator(schema)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks if JSON data conforms to the schema.
func (v *JSONValidator) Validate(data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("data is not valid JSON")
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("schema validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
