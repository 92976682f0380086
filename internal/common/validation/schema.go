package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError describes one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationResult collects the violations for one document.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Error joins the violations into a single message.
func (r *ValidationResult) Error() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Validator holds compiled JSON schemas keyed by name.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles every schema up front so that a bad schema fails at
// startup rather than on the first message.
func NewValidator(schemas map[string]map[string]interface{}) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(schemas))}
	for name, raw := range schemas {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

// Has reports whether a schema named name was compiled.
func (v *Validator) Has(name string) bool {
	_, ok := v.schemas[name]
	return ok
}

// Names lists the compiled schema names in sorted order.
func (v *Validator) Names() []string {
	names := make([]string, 0, len(v.schemas))
	for name := range v.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a JSON document against the named schema. Names without a
// schema always validate.
func (v *Validator) Validate(name string, document []byte) (*ValidationResult, error) {
	schema, ok := v.schemas[name]
	if !ok {
		return &ValidationResult{Valid: true}, nil
	}

	if len(document) == 0 {
		document = []byte("null")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out, nil
}
