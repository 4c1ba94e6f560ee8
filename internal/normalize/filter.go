package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/tidwall/sjson"
)

// ValidateFilter checks that a jq expression parses and compiles.
func ValidateFilter(expression string) error {
	_, err := compileFilter(expression)
	return err
}

func compileFilter(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: jq expression at position %d: %v", ErrInvalidFilter, parseErr.Offset, err)
		}
		return nil, fmt.Errorf("%w: jq expression: %v", ErrInvalidFilter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling jq expression: %v", ErrInvalidFilter, err)
	}
	return code, nil
}

// runFilter applies a jq expression to a JSON body. One output is used as
// is, several are collected into an array and none yields null. Objects in
// the output have sorted keys.
func runFilter(ctx context.Context, body []byte, expression string) ([]byte, error) {
	code, err := compileFilter(expression)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var input any
	if err := dec.Decode(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	var outputs []any
	iter := code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %s", ErrInvalidFilter, formatJQError(err))
		}
		outputs = append(outputs, v)
	}

	var result any
	switch len(outputs) {
	case 0:
		result = nil
	case 1:
		result = outputs[0]
	default:
		result = outputs
	}

	out, err := gojq.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding jq output: %w", err)
	}
	return out, nil
}

// formatJQError adds a hint to common runtime errors.
//
// Runtime jq errors are plain errors without typed wrappers in gojq, so the
// hints rely on string matching. They only decorate the message.
func formatJQError(err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return "query halted"
		}
		return fmt.Sprintf("query halted with: %v", haltErr.Value())
	}

	errStr := err.Error()

	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this response)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}

	return errStr + hint
}

// deletePaths removes each path from body. Paths that match nothing are
// skipped.
func deletePaths(body []byte, paths []string) ([]byte, error) {
	out := body
	for _, p := range paths {
		next, err := sjson.DeleteBytes(out, p)
		if err != nil {
			return nil, fmt.Errorf("%w: ignore path %q: %v", ErrInvalidFilter, p, err)
		}
		out = next
	}
	return out, nil
}
