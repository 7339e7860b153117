package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// BuildMCPTool converts a Contract into an mcp.Tool with the appropriate schema.
func BuildMCPTool(ct Contract) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(ct.Description)}
	for _, p := range ct.Params {
		if p.Type == TypeStringOrArray {
			continue
		}
		opts = append(opts, buildParamOption(p))
	}
	tool := mcp.NewTool(ct.Name, opts...)

	// mcp-go has no option for union types, so these are written directly.
	for _, p := range ct.Params {
		if p.Type != TypeStringOrArray {
			continue
		}
		if tool.InputSchema.Properties == nil {
			tool.InputSchema.Properties = map[string]any{}
		}
		tool.InputSchema.Properties[p.Name] = map[string]any{
			"description": p.Description,
			"oneOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
		}
		if p.Required {
			tool.InputSchema.Required = append(tool.InputSchema.Required, p.Name)
		}
	}
	return tool
}

// buildParamOption maps a Param to the appropriate mcp-go tool option.
func buildParamOption(p Param) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if p.Description != "" {
		opts = append(opts, mcp.Description(p.Description))
	}
	if p.Required {
		opts = append(opts, mcp.Required())
	}
	if len(p.Enum) > 0 {
		opts = append(opts, mcp.Enum(p.Enum...))
	}

	switch p.Type {
	case TypeNumber:
		if f, ok := toFloat(p.Default); ok {
			opts = append(opts, mcp.DefaultNumber(f))
		}
		if p.Minimum != nil {
			opts = append(opts, mcp.Min(*p.Minimum))
		}
		return mcp.WithNumber(p.Name, opts...)
	case TypeBoolean:
		return mcp.WithBoolean(p.Name, opts...)
	case TypeArray:
		opts = append([]mcp.PropertyOption{mcp.WithStringItems()}, opts...)
		return mcp.WithArray(p.Name, opts...)
	case TypeObject:
		if p.Properties != nil {
			opts = append(opts, mcp.Properties(p.Properties))
		}
		return mcp.WithObject(p.Name, opts...)
	default:
		if s, ok := p.Default.(string); ok {
			opts = append(opts, mcp.DefaultString(s))
		}
		if p.Pattern != "" {
			opts = append(opts, mcp.Pattern(p.Pattern))
		}
		return mcp.WithString(p.Name, opts...)
	}
}

// argValidator checks raw tool arguments against the tool's input schema
// with unknown fields rejected.
type argValidator struct {
	schema *jsonschema.Schema
}

// newArgValidator compiles the input schema of tool.
func newArgValidator(tool mcp.Tool) (*argValidator, error) {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema for %s: %w", tool.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse input schema for %s: %w", tool.Name, err)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("input schema for %s is not an object", tool.Name)
	}
	m["additionalProperties"] = false

	c := jsonschema.NewCompiler()
	loc := tool.Name + ".json"
	if err := c.AddResource(loc, m); err != nil {
		return nil, fmt.Errorf("failed to add schema for %s: %w", tool.Name, err)
	}
	schema, err := c.Compile(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", tool.Name, err)
	}
	return &argValidator{schema: schema}, nil
}

// Validate returns a readable error when args do not satisfy the schema.
func (v *argValidator) Validate(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("arguments are not JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("arguments are not JSON: %w", err)
	}
	if err := v.schema.Validate(inst); err != nil {
		return errors.New(describeValidation(err))
	}
	return nil
}

// describeValidation flattens a jsonschema error into a single line,
// dropping the header that names the schema location.
func describeValidation(err error) string {
	var ve *jsonschema.ValidationError
	lines := strings.Split(err.Error(), "\n")
	if errors.As(err, &ve) && len(lines) > 1 {
		lines = lines[1:]
	}
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "-"))
		if l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, "; ")
}
