package rag

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// ExtractJSON finds the JSON payload inside a free-text model response: a
// fenced code block first, otherwise the first balanced object or array.
func ExtractJSON(text string) (string, error) {
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	if candidate, ok := firstBalanced(text); ok && json.Valid([]byte(candidate)) {
		return candidate, nil
	}
	return "", fmt.Errorf("no JSON payload found in response: %w", ErrMalformedResponse)
}

// CompileSchema compiles an inline JSON schema document.
func CompileSchema(name, document string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s failed: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add schema %s failed: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s failed: %w", name, err)
	}
	return schema, nil
}

// DecodeStructured extracts, validates (when schema is non-nil) and decodes.
func DecodeStructured(text string, schema *jsonschema.Schema, out any) error {
	payload, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if schema != nil {
		inst, err := jsonschema.UnmarshalJSON(strings.NewReader(payload))
		if err != nil {
			return fmt.Errorf("parse structured output failed: %w: %w", ErrMalformedResponse, err)
		}
		if err := schema.Validate(inst); err != nil {
			return fmt.Errorf("structured output does not match schema: %w: %w", ErrMalformedResponse, err)
		}
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode structured output failed: %w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func firstBalanced(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	for start >= 0 {
		if end, ok := matchClose(text, start); ok {
			return text[start : end+1], true
		}
		next := strings.IndexAny(text[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchClose(text string, start int) (int, bool) {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
