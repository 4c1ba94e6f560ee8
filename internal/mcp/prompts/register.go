package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "compare_environments",
		Description: "RECOMMENDED: Compare the same JSON endpoints across two deployments (e.g. staging vs production). Builds the pairdiff_compare call and explains how to read and tune the result.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "left_base_url",
				Description: "Base URL of the baseline environment (e.g. https://staging.example.com)",
				Required:    true,
			},
			{
				Name:        "right_base_url",
				Description: "Base URL of the candidate environment (e.g. https://api.example.com)",
				Required:    true,
			},
			{
				Name:        "paths",
				Description: "Comma-separated paths to compare on both sides (e.g. /api/users,/api/orders?page=1)",
				Required:    false,
			},
			{
				Name:        "ignore",
				Description: "Comma-separated substrings of volatile lines to drop (e.g. \"timestamp\",\"request_id\")",
				Required:    false,
			},
		},
	}, HandleCompareEnvironments(cfg))
}
