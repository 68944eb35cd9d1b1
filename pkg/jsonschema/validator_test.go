package jsonschema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSchema = `{
	"type": "object",
	"properties": {
		"name": { "type": "string" },
		"age": { "type": "integer", "minimum": 0 }
	},
	"required": ["name"]
}`

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		body          any
		expectedValid bool
		errorContains string
	}{
		{
			name:          "Valid raw JSON",
			body:          `{"name": "John Doe", "age": 30}`,
			expectedValid: true,
		},
		{
			name:          "Valid decoded body",
			body:          map[string]any{"name": "John Doe", "age": float64(30)},
			expectedValid: true,
		},
		{
			name:          "Missing required property",
			body:          `{"age": 30}`,
			expectedValid: false,
			errorContains: "missing properties",
		},
		{
			name:          "Wrong type",
			body:          map[string]any{"name": 12},
			expectedValid: false,
			errorContains: "/name",
		},
		{
			name:          "Below minimum",
			body:          []byte(`{"name": "x", "age": -1}`),
			expectedValid: false,
			errorContains: "/age",
		},
		{
			name:          "Invalid JSON",
			body:          `{"name": `,
			expectedValid: false,
			errorContains: "invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := Validate(tt.body, userSchema)
			assert.Equal(t, tt.expectedValid, valid)
			if tt.errorContains != "" {
				require.NotEmpty(t, errs)
				assert.Contains(t, errs.Error(), tt.errorContains)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestCompile_DecodedSchema(t *testing.T) {
	schema, err := Compile(map[string]any{
		"type":     "array",
		"items":    map[any]any{"type": "string"},
		"minItems": 1,
	})
	require.NoError(t, err)

	assert.Empty(t, schema.Validate([]any{"a", "b"}))
	assert.NotEmpty(t, schema.Validate([]any{}))
	assert.NotEmpty(t, schema.Validate([]any{1}))
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid schema"))

	_, err = Compile(`{not json`)
	assert.Error(t, err)
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(userSchema), 0o644))

	schema, err := CompileFile(path)
	require.NoError(t, err)
	assert.Empty(t, schema.Validate(`{"name":"ok"}`))

	_, err = CompileFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCompileFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: object\nrequired: [name]\nproperties:\n  age:\n    type: integer\n"), 0o644))

	schema, err := CompileFile(path)
	require.NoError(t, err)
	assert.Empty(t, schema.Validate(map[string]any{"name": "ok", "age": 3}))
	assert.NotEmpty(t, schema.Validate(map[string]any{"age": "three"}))
}

func TestValidationErrors_Error(t *testing.T) {
	var empty ValidationErrors
	assert.Equal(t, "", empty.Error())
}
