// Package specfile loads comparison definitions from JSON, TOML or YAML
// files and resolves them into engine-ready specs.
package specfile

// File is the top-level comparison file.
type File struct {
	IgnoreLines []string     `json:"ignore_lines,omitempty" jsonschema:"description=Substrings whose lines are dropped on every side"`
	Requests    []Comparison `json:"requests" jsonschema:"minItems=1"`
}

// Comparison is one named left/right pair.
type Comparison struct {
	Name  string `json:"name" jsonschema:"minLength=1"`
	Left  Side   `json:"left"`
	Right Side   `json:"right"`
}

// Side describes one request.
type Side struct {
	Method      string            `json:"method,omitempty" jsonschema:"description=HTTP method (default GET)"`
	URL         string            `json:"url" jsonschema:"minLength=1"`
	Cached      bool              `json:"cached,omitempty"`
	BasicAuth   *BasicAuth        `json:"basic_auth,omitempty"`
	Token       string            `json:"token,omitempty" jsonschema:"description=Bearer token"`
	Headers     map[string]string `json:"headers,omitempty"`
	Query       map[string]string `json:"query,omitempty"`
	IgnoreLines []string          `json:"ignore_lines,omitempty"`
	IgnorePaths []string          `json:"ignore_paths,omitempty" jsonschema:"description=JSON paths removed before formatting"`
	Filter      string            `json:"filter,omitempty" jsonschema:"description=jq expression applied before formatting"`
}

// BasicAuth holds basic credentials. The password is optional.
type BasicAuth struct {
	Username string  `json:"username" jsonschema:"minLength=1"`
	Password *string `json:"password,omitempty"`
}
