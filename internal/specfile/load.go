package specfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"

	"github.com/usestring/pairdiff/internal/normalize"
	"github.com/usestring/pairdiff/pkg/types"
)

// ErrUndefinedVariable means a ${VAR} reference names an unset variable.
var ErrUndefinedVariable = errors.New("undefined environment variable")

// Format is a comparison file syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// keyDelim separates nested keys inside koanf. Header and query names may
// contain dots, so the default "." is not usable.
const keyDelim = "::"

// FormatFromPath picks the syntax from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported comparison file extension %q (want .json, .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// Load reads, validates and resolves the comparison file at path.
// Environment variables are looked up with os.LookupEnv.
func Load(path string) ([]types.ComparisonSpec, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	parser, err := parserFor(format)
	if err != nil {
		return nil, err
	}

	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("reading comparison file %s: %w", path, err)
	}

	f, err := decode(k)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Resolve(f, os.LookupEnv)
}

// Parse decodes and validates comparison file content without resolving it.
func Parse(data []byte, format Format) (*File, error) {
	parser, err := parserFor(format)
	if err != nil {
		return nil, err
	}
	k := koanf.New(keyDelim)
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("parsing comparison file: %w", err)
	}
	return decode(k)
}

func parserFor(format Format) (koanf.Parser, error) {
	switch format {
	case FormatJSON:
		return kjson.Parser(), nil
	case FormatTOML:
		return toml.Parser(), nil
	case FormatYAML:
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported comparison file format %q", format)
	}
}

// decode normalizes the parsed tree to plain JSON values, validates it
// against the schema and decodes it into a File.
func decode(k *koanf.Koanf) (*File, error) {
	// A JSON round trip turns TOML/YAML specific types (typed slices,
	// integer kinds) into the values the schema validator expects.
	raw, err := json.Marshal(k.Raw())
	if err != nil {
		return nil, fmt.Errorf("encoding comparison file: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding comparison file: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	var f File
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding comparison file: %w", err)
	}
	return &f, nil
}

// Resolve expands environment variables and turns f into engine specs.
// File-level ignore_lines are appended to every side's own list.
func Resolve(f *File, lookup func(string) (string, bool)) ([]types.ComparisonSpec, error) {
	specs := make([]types.ComparisonSpec, 0, len(f.Requests))
	for _, c := range f.Requests {
		left, err := resolveSide(c.Left, f.IgnoreLines, lookup)
		if err != nil {
			return nil, fmt.Errorf("comparison %q left: %w", c.Name, err)
		}
		right, err := resolveSide(c.Right, f.IgnoreLines, lookup)
		if err != nil {
			return nil, fmt.Errorf("comparison %q right: %w", c.Name, err)
		}
		specs = append(specs, types.ComparisonSpec{Name: c.Name, Left: left, Right: right})
	}
	if err := types.ValidateAll(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func resolveSide(s Side, globalIgnore []string, lookup func(string) (string, bool)) (types.RequestSpec, error) {
	x := expander{lookup: lookup}

	spec := types.RequestSpec{
		Method:      strings.ToUpper(s.Method),
		URL:         x.expand(s.URL),
		Headers:     x.expandMap(s.Headers),
		Query:       x.expandMap(s.Query),
		UseCache:    s.Cached,
		IgnorePaths: s.IgnorePaths,
		Filter:      s.Filter,
	}

	if s.BasicAuth != nil && s.Token != "" {
		return types.RequestSpec{}, fmt.Errorf("%w: basic_auth and token are mutually exclusive", types.ErrInvalidSpec)
	}
	switch {
	case s.BasicAuth != nil:
		var password *string
		if s.BasicAuth.Password != nil {
			p := x.expand(*s.BasicAuth.Password)
			password = &p
		}
		spec.Auth = types.BasicAuth(x.expand(s.BasicAuth.Username), password)
	case s.Token != "":
		spec.Auth = types.BearerAuth(x.expand(s.Token))
	}

	if x.err != nil {
		return types.RequestSpec{}, x.err
	}

	if len(s.IgnoreLines) > 0 || len(globalIgnore) > 0 {
		spec.Redactions = make([]string, 0, len(s.IgnoreLines)+len(globalIgnore))
		spec.Redactions = append(spec.Redactions, s.IgnoreLines...)
		spec.Redactions = append(spec.Redactions, globalIgnore...)
	}

	if spec.Filter != "" {
		if err := normalize.ValidateFilter(spec.Filter); err != nil {
			return types.RequestSpec{}, fmt.Errorf("%w: %v", types.ErrInvalidSpec, err)
		}
	}
	return spec, nil
}

// expander substitutes $VAR and ${VAR}; $$ is a literal $. The first
// undefined variable is kept in err.
type expander struct {
	lookup func(string) (string, bool)
	err    error
}

func (x *expander) expand(s string) string {
	return os.Expand(s, func(name string) string {
		if name == "$" {
			return "$"
		}
		v, ok := x.lookup(name)
		if !ok && x.err == nil {
			x.err = fmt.Errorf("%w: %s (write $$ for a literal $)", ErrUndefinedVariable, name)
		}
		return v
	})
}

func (x *expander) expandMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = x.expand(v)
	}
	return out
}

// CachePath returns the cache file for a comparison file: <cacheDir>/<file
// name>, with ".json" appended when the file is not JSON itself, so
// checks.json and checks.toml never share a cache.
func CachePath(specPath, cacheDir string) string {
	name := filepath.Base(specPath)
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		name += ".json"
	}
	return filepath.Join(cacheDir, name)
}
