package tools

import (
	"context"
	"errors"
	"slices"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pairdiff/internal/compare"
	"github.com/usestring/pairdiff/internal/specfile"
	"github.com/usestring/pairdiff/pkg/types"
)

// CompareInput is the input for pairdiff_compare.
type CompareInput struct {
	Comparisons   []ComparisonInput `json:"comparisons" jsonschema:"Comparisons to run. Each fetches a left and a right request and diffs the normalized JSON bodies"`
	IgnoreLines   []string          `json:"ignore_lines,omitempty" jsonschema:"Substrings whose lines are dropped from every side"`
	ContextLines  *int              `json:"context_lines,omitempty" jsonschema:"Unified diff context lines (default: 3)"`
	IncludeBodies bool              `json:"include_bodies,omitempty" jsonschema:"Also return both normalized bodies per comparison (high context cost)"`
}

// ComparisonInput is one named pair of requests.
type ComparisonInput struct {
	Name  string    `json:"name" jsonschema:"Unique comparison name"`
	Left  SideInput `json:"left" jsonschema:"Left (baseline) request"`
	Right SideInput `json:"right" jsonschema:"Right (candidate) request"`
}

// SideInput describes one request. String values may reference server
// environment variables named in MCP_ENV_ALLOW as $VAR or ${VAR}; $$ is a
// literal $.
type SideInput struct {
	Method      string            `json:"method,omitempty" jsonschema:"HTTP method (default: GET)"`
	URL         string            `json:"url" jsonschema:"Absolute URL"`
	Cached      bool              `json:"cached,omitempty" jsonschema:"Reuse the stored response for this URL if present; store it otherwise"`
	Username    string            `json:"username,omitempty" jsonschema:"Basic auth user name"`
	Password    *string           `json:"password,omitempty" jsonschema:"Basic auth password (requires username)"`
	Token       string            `json:"token,omitempty" jsonschema:"Bearer token (exclusive with basic auth)"`
	Headers     map[string]string `json:"headers,omitempty" jsonschema:"Request headers"`
	Query       map[string]string `json:"query,omitempty" jsonschema:"Query parameters appended to the URL"`
	IgnoreLines []string          `json:"ignore_lines,omitempty" jsonschema:"Substrings whose lines are dropped from this side"`
	IgnorePaths []string          `json:"ignore_paths,omitempty" jsonschema:"JSON paths removed before formatting (e.g. meta.generated)"`
	Filter      string            `json:"filter,omitempty" jsonschema:"jq expression applied before formatting"`
}

// CompareOutput is the output for pairdiff_compare.
type CompareOutput struct {
	OK       bool                     `json:"ok"`
	Diffs    []types.DiffResult       `json:"diffs,omitzero"`
	Failures []FailureOutput          `json:"failures,omitzero"`
	Bodies   []types.ComparisonResult `json:"bodies,omitzero"`
	Resource *types.ResourceRef       `json:"resource,omitempty"`
}

// FailureOutput describes a comparison that produced no result.
type FailureOutput struct {
	Name  string `json:"name"`
	Side  string `json:"side,omitempty"`
	URL   string `json:"url,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// ToolCompare runs comparisons through the shared engine.
func ToolCompare(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CompareInput) (*sdkmcp.CallToolResult, CompareOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CompareInput) (*sdkmcp.CallToolResult, CompareOutput, error) {
		if len(input.Comparisons) == 0 {
			return nil, CompareOutput{}, ErrInvalidInput("comparisons must not be empty")
		}
		contextLines := compare.DefaultContextLines
		if input.ContextLines != nil {
			if *input.ContextLines < 0 {
				return nil, CompareOutput{}, ErrInvalidInput("context_lines must not be negative")
			}
			contextLines = *input.ContextLines
		}

		specs, err := specfile.Resolve(input.toFile(), d.lookupEnv())
		if err != nil {
			if errors.Is(err, specfile.ErrUndefinedVariable) {
				return nil, CompareOutput{}, ErrInvalidInput(err.Error() + " (only variables listed in MCP_ENV_ALLOW are expanded)")
			}
			if errors.Is(err, types.ErrInvalidSpec) {
				return nil, CompareOutput{}, ErrInvalidInput(err.Error())
			}
			return nil, CompareOutput{}, WrapError(err)
		}

		report, err := d.Engine.Compare(ctx, specs)
		if err != nil {
			return nil, CompareOutput{}, WrapError(err)
		}

		out := CompareOutput{OK: report.OK()}
		results := slices.Clone(report.Results)
		slices.SortFunc(results, func(a, b types.ComparisonResult) int {
			return strings.Compare(a.Name, b.Name)
		})
		for _, res := range results {
			out.Diffs = append(out.Diffs, compare.Diff(res, contextLines))
		}
		if input.IncludeBodies {
			out.Bodies = results
		}
		for _, f := range report.Failures {
			out.Failures = append(out.Failures, FailureOutput{
				Name:  f.Name,
				Side:  string(f.Side),
				URL:   f.URL,
				Code:  ErrorCode(f.Err),
				Error: f.Error(),
			})
		}
		slices.SortFunc(out.Failures, func(a, b FailureOutput) int {
			return strings.Compare(a.Name, b.Name)
		})

		if types.AnyRequiresCache(specs) {
			out.Resource = &types.ResourceRef{
				URI:  CacheResourceURI,
				MIME: MimeJSON,
				Hint: "Fetch for every cached response body",
			}
		}
		return nil, out, nil
	}
}

func (in CompareInput) toFile() *specfile.File {
	f := &specfile.File{IgnoreLines: in.IgnoreLines}
	for _, c := range in.Comparisons {
		f.Requests = append(f.Requests, specfile.Comparison{
			Name:  c.Name,
			Left:  c.Left.toSide(),
			Right: c.Right.toSide(),
		})
	}
	return f
}

func (s SideInput) toSide() specfile.Side {
	side := specfile.Side{
		Method:      s.Method,
		URL:         s.URL,
		Cached:      s.Cached,
		Token:       s.Token,
		Headers:     s.Headers,
		Query:       s.Query,
		IgnoreLines: s.IgnoreLines,
		IgnorePaths: s.IgnorePaths,
		Filter:      s.Filter,
	}
	if s.Username != "" || s.Password != nil {
		side.BasicAuth = &specfile.BasicAuth{Username: s.Username, Password: s.Password}
	}
	return side
}
