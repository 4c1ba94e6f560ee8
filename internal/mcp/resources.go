package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pairdiff/internal/mcp/tools"
	"github.com/usestring/pairdiff/pkg/types"
)

// registerResources registers the cache resource.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         tools.CacheResourceURI,
		Name:        "Response Cache",
		Description: "Every cached response keyed by URL, with status code and normalized body. High context cost - pairdiff_cache_list already returns URLs and statuses. Only fetch when you need the stored bodies.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.3,
		},
	}, s.handleResourceCache)
}

// cacheDocument is the body of the cache resource. Entries are ordered by URL.
type cacheDocument struct {
	Path    string                  `json:"path,omitempty"`
	Entries []types.FetchedResponse `json:"entries"`
}

func (s *Server) handleResourceCache(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	store := s.deps.Engine.Cache()
	if store == nil {
		return nil, tools.ErrNotFound("cache", req.Params.URI)
	}

	snapshot := store.Snapshot()
	doc := cacheDocument{
		Path:    store.Path(),
		Entries: make([]types.FetchedResponse, 0, len(snapshot)),
	}
	for _, url := range slices.Sorted(maps.Keys(snapshot)) {
		doc.Entries = append(doc.Entries, snapshot[url])
	}
	return toResourceResult(req.Params.URI, doc)
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
