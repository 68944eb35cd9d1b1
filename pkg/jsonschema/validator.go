// Package jsonschema validates response bodies against JSON Schema documents.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Schema is a compiled JSON Schema.
type Schema struct {
	schema *jsonschema.Schema
}

// Compile compiles a schema given as raw JSON ([]byte or string) or as an
// already decoded document, such as a schema embedded in a YAML config file.
func Compile(schema any) (*Schema, error) {
	data, err := toJSON(schema)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Schema{schema: compiled}, nil
}

// CompileFile reads and compiles the schema stored at path. Files ending
// in .yaml or .yml are decoded as YAML, anything else as JSON.
func CompileFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid schema: %w", err)
		}
		return Compile(doc)
	default:
		return Compile(data)
	}
}

// Validate checks body against the schema. body may be raw JSON ([]byte or
// string) or a decoded value such as the Body of a JSON response.
// A nil result means the body is valid.
func (s *Schema) Validate(body any) ValidationErrors {
	doc, err := toDocument(body)
	if err != nil {
		return ValidationErrors{fmt.Errorf("invalid JSON: %w", err)}
	}

	if err := s.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return extractValidationErrors(validationErr)
		}
		return ValidationErrors{err}
	}
	return nil
}

// Validate compiles schema and checks body against it in one step.
func Validate(body, schema any) (bool, ValidationErrors) {
	compiled, err := Compile(schema)
	if err != nil {
		return false, ValidationErrors{err}
	}
	errs := compiled.Validate(body)
	return len(errs) == 0, errs
}

// extractValidationErrors flattens a jsonschema.ValidationError tree
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	var errors ValidationErrors

	if err.Message != "" && len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		errors = append(errors, fmt.Errorf("validation error at %s: %s", location, err.Message))
	}

	for _, childErr := range err.Causes {
		errors = append(errors, extractValidationErrors(childErr)...)
	}

	if len(errors) == 0 {
		errors = append(errors, fmt.Errorf("validation error: %s", err.Message))
	}
	return errors
}

func toJSON(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case json.RawMessage:
		return b, nil
	default:
		return json.Marshal(normalizeYAML(v))
	}
}

// toDocument turns body into the decoded form the validator expects.
func toDocument(body any) (any, error) {
	switch b := body.(type) {
	case []byte, string, json.RawMessage:
		data, _ := toJSON(b)
		var doc any
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&doc); err != nil {
			return nil, err
		}
		return doc, nil
	default:
		data, err := json.Marshal(normalizeYAML(body))
		if err != nil {
			return nil, err
		}
		return toDocument(data)
	}
}

// normalizeYAML converts map[any]any nodes, which JSON cannot encode, to
// map[string]any.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = normalizeYAML(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = normalizeYAML(val)
		}
		return s
	default:
		return v
	}
}
