// Package client sends one side of a comparison over HTTP.
//
// A Client turns a types.RequestSpec into a request: the method defaults to
// GET, query parameters are appended to the URL, and basic or bearer
// credentials are applied. Header names and values are checked before any
// network I/O, so a malformed spec fails with ErrInvalidHeader without
// touching the server.
//
// # Quick Start
//
//	c := client.New(
//	    client.WithTimeout(10*time.Second),
//	    client.WithUserAgent("my-tool/1.0"),
//	)
//	resp, err := c.Do(ctx, types.RequestSpec{URL: "https://example.com/api"})
//
// # Timeouts
//
// Every request carries a deadline (DefaultTimeout unless WithTimeout is
// used). The deadline covers reading the body.
//
// # Responses
//
// Status codes are never errors: a 404 or 500 is returned like a 200. The
// body is read up to WithMaxBodyBytes; a longer body fails with
// ErrBodyTooLarge. A response without a Content-Type header fails with
// ErrMissingContentType.
package client
