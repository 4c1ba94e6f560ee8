// Package types holds the data model shared by the engine, the CLI and the
// MCP server. Everything here is safe to import from outside the module.
package types

import "errors"

// ErrInvalidSpec marks a comparison or request definition that cannot be run.
// It is a configuration error: the engine reports it before any fetch starts.
var ErrInvalidSpec = errors.New("invalid comparison spec")

// ResourceRef points to an MCP resource holding more detail than a tool
// result carries.
type ResourceRef struct {
	URI  string `json:"uri"`
	MIME string `json:"mime"`
	Hint string `json:"hint,omitempty"`
}
