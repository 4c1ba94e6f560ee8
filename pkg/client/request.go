package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpguts"

	"github.com/usestring/pairdiff/pkg/types"
)

// BuildRequest turns spec into an *http.Request without sending it.
// Method, URL and headers are validated here so that a bad spec fails
// before any network I/O.
func (c *Client) BuildRequest(ctx context.Context, spec types.RequestSpec) (*http.Request, error) {
	method := spec.EffectiveMethod()
	// Methods are tokens, the same grammar as header field names.
	if !httpguts.ValidHeaderFieldName(method) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, spec.Method)
	}

	for name, value := range spec.Headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("%w: name %q", ErrInvalidHeader, name)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("%w: value for %q", ErrInvalidHeader, name)
		}
	}

	wireURL, err := spec.WireURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	u, err := url.Parse(wireURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, wireURL)
	}

	req, err := http.NewRequestWithContext(ctx, method, wireURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for name, value := range spec.Headers {
		if http.CanonicalHeaderKey(name) == "Host" {
			req.Host = value
			continue
		}
		req.Header.Set(name, value)
	}

	switch spec.Auth.Kind {
	case types.AuthBasic:
		password := ""
		if spec.Auth.Password != nil {
			password = *spec.Auth.Password
		}
		req.SetBasicAuth(spec.Auth.Username, password)
	case types.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+spec.Auth.Token)
	}

	return req, nil
}
