package tools

import (
	"context"
	"slices"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// CacheListInput is the input for pairdiff_cache_list.
type CacheListInput struct {
	URLPrefix string `json:"url_prefix,omitempty" jsonschema:"Only list URLs starting with this prefix"`
}

// CacheListOutput is the output for pairdiff_cache_list.
type CacheListOutput struct {
	Path     string       `json:"path,omitempty"`
	Total    int          `json:"total"`
	Entries  []CacheEntry `json:"entries,omitzero"`
	Resource string       `json:"resource,omitempty"`
}

// CacheEntry summarizes one stored response.
type CacheEntry struct {
	URL        string `json:"url"`
	StatusCode uint16 `json:"status_code"`
	Lines      int    `json:"lines"`
}

// ToolCacheList lists the URLs currently held in the response cache.
func ToolCacheList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CacheListInput) (*sdkmcp.CallToolResult, CacheListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CacheListInput) (*sdkmcp.CallToolResult, CacheListOutput, error) {
		store := d.Engine.Cache()
		if store == nil {
			return nil, CacheListOutput{}, nil
		}

		snapshot := store.Snapshot()
		out := CacheListOutput{
			Path:     store.Path(),
			Total:    len(snapshot),
			Resource: CacheResourceURI,
		}
		for url, resp := range snapshot {
			if input.URLPrefix != "" && !strings.HasPrefix(url, input.URLPrefix) {
				continue
			}
			out.Entries = append(out.Entries, CacheEntry{
				URL:        url,
				StatusCode: resp.StatusCode,
				Lines:      strings.Count(resp.Body, "\n") + 1,
			})
		}
		slices.SortFunc(out.Entries, func(a, b CacheEntry) int {
			return strings.Compare(a.URL, b.URL)
		})
		return nil, out, nil
	}
}
