package prompts

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getPrompt(t *testing.T, cfg *Config, args map[string]string) (*sdkmcp.GetPromptResult, error) {
	t.Helper()
	h := HandleCompareEnvironments(cfg)
	return h(context.Background(), &sdkmcp.GetPromptRequest{
		Params: &sdkmcp.GetPromptParams{Name: "compare_environments", Arguments: args},
	})
}

func promptText(t *testing.T, res *sdkmcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	tc, ok := res.Messages[0].Content.(*sdkmcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestCompareEnvironments(t *testing.T) {
	res, err := getPrompt(t, &Config{CacheFile: "cache/mcp.json"}, map[string]string{
		"left_base_url":  "https://staging.example.com/",
		"right_base_url": "https://api.example.com",
		"paths":          "/api/users, api/orders?page=1",
		"ignore":         `"timestamp"`,
	})
	require.NoError(t, err)
	text := promptText(t, res)

	assert.Contains(t, text, `{name: "api/users", left: {url: "https://staging.example.com/api/users"}, right: {url: "https://api.example.com/api/users"}}`)
	assert.Contains(t, text, `{name: "api/orders", left: {url: "https://staging.example.com/api/orders?page=1"}`)
	assert.Contains(t, text, `ignore_lines=["\"timestamp\""]`)
	assert.Contains(t, text, "cache/mcp.json")
}

func TestCompareEnvironments_PlaceholderPath(t *testing.T) {
	res, err := getPrompt(t, &Config{}, map[string]string{
		"left_base_url":  "http://a",
		"right_base_url": "http://b",
	})
	require.NoError(t, err)
	text := promptText(t, res)
	assert.Contains(t, text, `left: {url: "http://a/<path>"}`)
	assert.NotContains(t, text, "ignore_lines=")
}

func TestCompareEnvironments_RequiresBaseURLs(t *testing.T) {
	_, err := getPrompt(t, &Config{}, map[string]string{"left_base_url": "http://a"})
	require.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}
