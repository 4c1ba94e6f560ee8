// Package tools contains MCP tool implementations for pairdiff.
package tools

// MIME type constant.
const MimeJSON = "application/json"

// CacheResourceURI is the resource listing every cached response.
const CacheResourceURI = "pairdiff://cache"
