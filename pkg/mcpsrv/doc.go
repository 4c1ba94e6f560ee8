// Package mcpsrv provides an extensible MCP server for pairdiff.
//
// The server exposes the comparison engine as MCP tools (pairdiff_compare,
// pairdiff_normalize, pairdiff_cache_list), the pairdiff://cache resource
// and the compare_environments prompt. It owns one engine whose response
// cache is persisted when the server is closed.
//
// # Basic Usage
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type MyInput struct {
//	    URL string `json:"url"`
//	}
//
//	type MyOutput struct {
//	    Status int `json:"status"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithDepsTool(&mcp.Tool{Name: "my_tool", Description: "My tool"},
//	        func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	                resp, err := d.Engine.FetchOne(ctx, types.RequestSpec{URL: in.URL})
//	                if err != nil {
//	                    return nil, MyOutput{}, err
//	                }
//	                return nil, MyOutput{Status: int(resp.StatusCode)}, nil
//	            }
//	        }),
//	)
//
// # Configuration
//
// Settings come from environment variables (see internal/config); options
// override some of them:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithCacheFile("/var/cache/pairdiff/mcp.json"),
//	)
package mcpsrv
