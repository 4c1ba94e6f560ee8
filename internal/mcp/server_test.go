package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pairdiff/internal/config"
	"github.com/usestring/pairdiff/internal/engine"
	"github.com/usestring/pairdiff/internal/mcp/tools"
)

func newEngine(t *testing.T, cachePath string) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Config{
		CachePath:   cachePath,
		AlwaysCache: cachePath != "",
		Timeout:     5 * time.Second,
		Workers:     2,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func connect(t *testing.T, s *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	_, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "0.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestNewServer_RequiresEngine(t *testing.T) {
	_, err := NewServer(nil)
	require.Error(t, err)
	_, err = NewServer(&tools.Deps{})
	require.Error(t, err)
}

func TestServer_BuiltinsRegistered(t *testing.T) {
	deps := &tools.Deps{
		Engine: newEngine(t, filepath.Join(t.TempDir(), "mcp.json")),
		Config: &config.Config{MCPCacheFile: "cache/mcp.json"},
	}
	s, err := NewServer(deps, WithBuiltinTools(), WithBuiltinPrompts())
	require.NoError(t, err)
	session := connect(t, s)
	ctx := context.Background()

	listed, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range listed.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"pairdiff_compare", "pairdiff_normalize", "pairdiff_cache_list"}, names)

	prompt, err := session.GetPrompt(ctx, &sdkmcp.GetPromptParams{
		Name:      "compare_environments",
		Arguments: map[string]string{"left_base_url": "http://a", "right_base_url": "http://b", "paths": "/x"},
	})
	require.NoError(t, err)
	require.Len(t, prompt.Messages, 1)
	text := prompt.Messages[0].Content.(*sdkmcp.TextContent).Text
	assert.Contains(t, text, "cache/mcp.json")
}

func TestServer_CacheResource(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	t.Cleanup(upstream.Close)

	deps := &tools.Deps{Engine: newEngine(t, filepath.Join(t.TempDir(), "mcp.json"))}
	s, err := NewServer(deps, WithBuiltinTools())
	require.NoError(t, err)
	session := connect(t, s)
	ctx := context.Background()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name: "pairdiff_compare",
		Arguments: map[string]any{
			"comparisons": []map[string]any{{
				"name":  "b",
				"left":  map[string]any{"url": upstream.URL + "/b", "cached": true},
				"right": map[string]any{"url": upstream.URL + "/a", "cached": true},
			}},
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	read, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: tools.CacheResourceURI})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Equal(t, tools.MimeJSON, read.Contents[0].MIMEType)

	var doc cacheDocument
	require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &doc))
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, upstream.URL+"/a", doc.Entries[0].URL)
	assert.Equal(t, upstream.URL+"/b", doc.Entries[1].URL)
	assert.Equal(t, "{\n  \"path\": \"/a\"\n}", doc.Entries[0].Body)
}

func TestServer_CacheResourceWithoutCache(t *testing.T) {
	deps := &tools.Deps{Engine: newEngine(t, "")}
	s, err := NewServer(deps, WithBuiltinTools())
	require.NoError(t, err)
	session := connect(t, s)

	_, err = session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: tools.CacheResourceURI})
	require.Error(t, err)
}

func TestServer_CustomRegistration(t *testing.T) {
	deps := &tools.Deps{Engine: newEngine(t, "")}
	called := false
	s, err := NewServer(deps, WithCustomRegistration(func(srv *sdkmcp.Server) {
		called = true
		srv.AddPrompt(&sdkmcp.Prompt{Name: "custom"}, func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
			return &sdkmcp.GetPromptResult{}, nil
		})
	}))
	require.NoError(t, err)
	assert.True(t, called)

	session := connect(t, s)
	_, err = session.GetPrompt(context.Background(), &sdkmcp.GetPromptParams{Name: "custom"})
	require.NoError(t, err)
}
