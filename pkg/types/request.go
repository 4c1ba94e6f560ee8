package types

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Side identifies one half of a comparison.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// AuthKind selects how a request authenticates.
type AuthKind string

const (
	AuthNone   AuthKind = ""
	AuthBasic  AuthKind = "basic"
	AuthBearer AuthKind = "bearer"
)

// Auth holds the credentials for one request. At most one scheme is active.
type Auth struct {
	Kind     AuthKind
	Username string  // basic only
	Password *string // basic only, optional
	Token    string  // bearer only
}

// BasicAuth returns basic credentials. A nil password sends the username alone.
func BasicAuth(username string, password *string) Auth {
	return Auth{Kind: AuthBasic, Username: username, Password: password}
}

// BearerAuth returns bearer token credentials.
func BearerAuth(token string) Auth {
	return Auth{Kind: AuthBearer, Token: token}
}

// Validate checks that exactly the fields of the selected scheme are set.
func (a Auth) Validate() error {
	switch a.Kind {
	case AuthNone:
		if a.Username != "" || a.Password != nil || a.Token != "" {
			return fmt.Errorf("%w: credentials set without an auth scheme", ErrInvalidSpec)
		}
	case AuthBasic:
		if a.Username == "" {
			return fmt.Errorf("%w: basic auth requires a username", ErrInvalidSpec)
		}
		if a.Token != "" {
			return fmt.Errorf("%w: basic and bearer auth are mutually exclusive", ErrInvalidSpec)
		}
	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("%w: bearer auth requires a token", ErrInvalidSpec)
		}
		if a.Username != "" || a.Password != nil {
			return fmt.Errorf("%w: basic and bearer auth are mutually exclusive", ErrInvalidSpec)
		}
	default:
		return fmt.Errorf("%w: unknown auth kind %q", ErrInvalidSpec, a.Kind)
	}
	return nil
}

// RequestSpec describes one side of a comparison.
// Treat it as a value: the engine never mutates a spec it was handed.
type RequestSpec struct {
	Method     string            // Default GET
	URL        string            // Absolute URL, required
	Headers    map[string]string // Sent as-is; validated before any I/O
	Query      map[string]string // Appended to the URL's existing query
	Auth       Auth
	Redactions []string // Lines containing any of these substrings are dropped
	UseCache   bool     // Reuse and store the response keyed by wire URL

	// IgnorePaths are JSON paths (gjson/sjson syntax) removed from the body
	// before formatting. Missing paths are ignored.
	IgnorePaths []string
	// Filter is an optional jq expression applied before formatting.
	Filter string
}

// EffectiveMethod returns the upper-cased method, defaulting to GET.
func (r RequestSpec) EffectiveMethod() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// Validate reports configuration errors: a missing or relative URL and
// conflicting credentials. Header syntax is checked by the transport.
func (r RequestSpec) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidSpec)
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("%w: parsing url %q: %v", ErrInvalidSpec, r.URL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: url %q must be absolute", ErrInvalidSpec, r.URL)
	}
	return r.Auth.Validate()
}

// WireURL returns the URL sent on the wire: URL with Query appended.
// Without query parameters the URL string is returned untouched, so it keeps
// whatever encoding the caller used. Cache entries are keyed by this value.
func (r RequestSpec) WireURL() (string, error) {
	if len(r.Query) == 0 {
		return r.URL, nil
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	q := u.Query()
	for k, v := range r.Query {
		q.Add(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ComparisonSpec is a named pair of requests whose responses are diffed.
type ComparisonSpec struct {
	Name  string
	Left  RequestSpec
	Right RequestSpec
}

// Side returns the request for the given side.
func (c ComparisonSpec) Side(s Side) RequestSpec {
	if s == SideRight {
		return c.Right
	}
	return c.Left
}

// RequiresCache reports whether either side is cache-eligible.
func (c ComparisonSpec) RequiresCache() bool {
	return c.Left.UseCache || c.Right.UseCache
}

// Validate checks the name and both sides.
func (c ComparisonSpec) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: comparison name is required", ErrInvalidSpec)
	}
	if err := c.Left.Validate(); err != nil {
		return fmt.Errorf("comparison %q left: %w", c.Name, err)
	}
	if err := c.Right.Validate(); err != nil {
		return fmt.Errorf("comparison %q right: %w", c.Name, err)
	}
	return nil
}

// String renders "name: left => right".
func (c ComparisonSpec) String() string {
	return c.Name + ": " + c.Left.URL + " => " + c.Right.URL
}

// ValidateAll validates every spec and rejects duplicate names, since results
// are correlated by name.
func ValidateAll(specs []ComparisonSpec) error {
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: duplicate comparison name %q", ErrInvalidSpec, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// AnyRequiresCache reports whether any spec has a cache-eligible side.
func AnyRequiresCache(specs []ComparisonSpec) bool {
	for _, s := range specs {
		if s.RequiresCache() {
			return true
		}
	}
	return false
}
