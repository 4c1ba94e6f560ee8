package prompts

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleCompareEnvironments implements the environment comparison workflow.
func HandleCompareEnvironments(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		args := req.Params.Arguments

		left := strings.TrimRight(args["left_base_url"], "/")
		right := strings.TrimRight(args["right_base_url"], "/")
		if left == "" || right == "" {
			return nil, fmt.Errorf("left_base_url and right_base_url are required")
		}
		paths := splitList(args["paths"])
		ignore := splitList(args["ignore"])

		var sb strings.Builder

		sb.WriteString("# Compare Two Environments\n\n")
		sb.WriteString("You are checking whether two deployments of the same JSON API return the same data. ")
		sb.WriteString(fmt.Sprintf("The baseline is %s and the candidate is %s.\n\n", left, right))

		sb.WriteString("## How Comparison Works\n\n")
		sb.WriteString("- Each side is fetched, its body pretty-printed with the server's key order kept\n")
		sb.WriteString("- Lines containing any `ignore_lines` substring are dropped before diffing\n")
		sb.WriteString("- `ignore_paths` deletes JSON paths and `filter` applies a jq expression before formatting\n")
		sb.WriteString("- Only `application/json` responses can be compared; other content types are reported as failures\n")
		sb.WriteString("- A failing comparison is reported on its own and never hides the others\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Run the comparison** with the call below\n")
		sb.WriteString("2. **Triage by severity**: `high` means status codes differ, `medium` more than 10 changed lines, `low` a small body change\n")
		sb.WriteString("3. **Remove noise**: if diffs only show timestamps, IDs or request tracing, add those substrings to `ignore_lines` and rerun\n")
		sb.WriteString("4. **Preview tuning** with `pairdiff_normalize` on a sample body before rerunning everything\n\n")

		sb.WriteString("## Suggested Call\n\n")
		sb.WriteString("```\n")
		sb.WriteString("pairdiff_compare(")
		if len(ignore) > 0 {
			sb.WriteString(fmt.Sprintf("ignore_lines=%s, ", quoteList(ignore)))
		}
		sb.WriteString("comparisons=[\n")
		if len(paths) == 0 {
			paths = []string{"/<path>"}
		}
		for _, p := range paths {
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
			sb.WriteString(fmt.Sprintf("  {name: %q, left: {url: %q}, right: {url: %q}},\n", comparisonName(p), left+p, right+p))
		}
		sb.WriteString("])\n")
		sb.WriteString("```\n\n")

		sb.WriteString("## Expected Output Format\n\n")
		sb.WriteString("1. **Summary**: how many comparisons are identical, differ, or failed\n")
		sb.WriteString("2. **Differences**: per comparison, highest severity first, the changed fields and their values on each side\n")
		sb.WriteString("3. **Failures**: the side, URL and error of each failed comparison\n\n")

		sb.WriteString("## Constraints\n\n")
		sb.WriteString("- Do NOT set `include_bodies` unless a diff is too small to explain the change\n")
		sb.WriteString("- Put credentials in server environment variables and reference them as `${VAR}` in `token` or `password` (the server must list them in MCP_ENV_ALLOW)\n")
		sb.WriteString("- Mark a side `cached: true` only when its response is known to be stable\n\n")

		sb.WriteString("## If Things Go Wrong\n\n")
		sb.WriteString("- **FETCH_ERROR with unsupported content type?** The endpoint did not answer with JSON; check the URL and Accept header\n")
		sb.WriteString("- **TIMEOUT?** The upstream is slow; compare fewer paths at once\n")
		sb.WriteString("- **Stale cached side?** Check `pairdiff_cache_list`")
		if cfg != nil && cfg.CacheFile != "" {
			sb.WriteString(fmt.Sprintf("; cached responses persist in %s", cfg.CacheFile))
		}
		sb.WriteString("\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for comparing two environments",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// comparisonName derives a readable name from a path: "/api/users?page=1"
// becomes "api/users".
func comparisonName(p string) string {
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	name := strings.Trim(p, "/")
	if name == "" {
		return "root"
	}
	return name
}
