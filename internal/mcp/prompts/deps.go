// Package prompts contains MCP prompt implementations for pairdiff.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	CacheFile string // Where cached responses persist between sessions
}
