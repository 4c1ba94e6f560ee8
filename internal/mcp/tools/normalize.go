package tools

import (
	"context"
	"errors"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pairdiff/internal/normalize"
)

// NormalizeInput is the input for pairdiff_normalize.
type NormalizeInput struct {
	Body        string   `json:"body" jsonschema:"Raw response body"`
	ContentType string   `json:"content_type,omitempty" jsonschema:"Content-Type of the body (default: application/json)"`
	IgnoreLines []string `json:"ignore_lines,omitempty" jsonschema:"Substrings whose lines are dropped"`
	IgnorePaths []string `json:"ignore_paths,omitempty" jsonschema:"JSON paths removed before formatting"`
	Filter      string   `json:"filter,omitempty" jsonschema:"jq expression applied before formatting"`
}

// NormalizeOutput is the output for pairdiff_normalize.
type NormalizeOutput struct {
	Text  string `json:"text"`
	Lines int    `json:"lines"`
}

// ToolNormalize shows what a body looks like after normalization, without
// making a request.
func ToolNormalize(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input NormalizeInput) (*sdkmcp.CallToolResult, NormalizeOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input NormalizeInput) (*sdkmcp.CallToolResult, NormalizeOutput, error) {
		contentType := input.ContentType
		if contentType == "" {
			contentType = "application/json"
		}

		text, err := d.Engine.Normalizer().Normalize(ctx, []byte(input.Body), contentType, normalize.Options{
			Redactions:  input.IgnoreLines,
			IgnorePaths: input.IgnorePaths,
			Filter:      input.Filter,
		})
		if err != nil {
			if errors.Is(err, normalize.ErrUnsupportedContentType) ||
				errors.Is(err, normalize.ErrMalformedBody) ||
				errors.Is(err, normalize.ErrInvalidFilter) {
				return nil, NormalizeOutput{}, &CodedError{Code: ErrCodeInvalidInput, Message: "cannot normalize body", Cause: err}
			}
			return nil, NormalizeOutput{}, WrapError(err)
		}

		lines := 0
		if text != "" {
			lines = strings.Count(text, "\n") + 1
		}
		return nil, NormalizeOutput{Text: text, Lines: lines}, nil
	}
}
