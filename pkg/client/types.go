package client

import "errors"

var (
	// ErrInvalidHeader means a header name or value is not valid HTTP.
	ErrInvalidHeader = errors.New("invalid header")
	// ErrInvalidMethod means the method is not a valid HTTP token.
	ErrInvalidMethod = errors.New("invalid method")
	// ErrInvalidURL means the wire URL could not be built or is not absolute.
	ErrInvalidURL = errors.New("invalid url")
	// ErrMissingContentType means the response carried no Content-Type header.
	ErrMissingContentType = errors.New("response has no Content-Type header")
	// ErrBodyTooLarge means the response body exceeded the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Response is a raw response as read off the wire.
type Response struct {
	URL         string // Wire URL, after query expansion
	StatusCode  uint16
	ContentType string
	Body        []byte
}
