package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pairdiff_compare",
		Description: "Fetch pairs of JSON endpoints (left vs right, e.g. staging vs production) and diff their normalized bodies. Bodies are pretty-printed with key order preserved; lines containing any ignore_lines substring are dropped. Returns {ok, diffs: [{name, left_url, right_url, left_status, right_status, status_changed, identical, added, removed, unified, severity}], failures: [{name, side, url, code, error}]}. One failing comparison never hides the others. Set cached=true on a side to reuse a stored response across calls; list stored URLs with pairdiff_cache_list. $VAR and ${VAR} expand only server variables allowed by MCP_ENV_ALLOW; write $$ for a literal $.",
	}, ToolCompare(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "pairdiff_normalize",
		Description: "Normalize a JSON body exactly as pairdiff_compare would (ignore_paths, jq filter, pretty print, line redaction) without making a request. Use it to tune ignore_lines and filters before comparing.",
	}, ToolNormalize(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "pairdiff_cache_list",
		Description: "List URLs held in the response cache with their status codes. Read the pairdiff://cache resource for the stored bodies.",
	}, ToolCacheList(d))
}
