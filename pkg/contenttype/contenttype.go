// Package contenttype decides which responses can be compared and names the
// kind of content when they cannot.
package contenttype

import (
	"mime"
	"strings"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON       Category = "json"
	VendorJSON Category = "vendor json" // application/*+json, application/x-json, ...
	XML        Category = "xml"
	HTML       Category = "html"
	YAML       Category = "yaml"
	Text       Category = "text"
	Binary     Category = "binary"
	Missing    Category = "missing"
)

// rule maps a media type predicate to a category. Rules are checked in order.
type rule struct {
	match    func(mediaType string) bool
	category Category
}

var rules = []rule{
	{func(mt string) bool { return mt == "application/json" }, JSON},
	{func(mt string) bool { return strings.Contains(mt, "json") }, VendorJSON},
	{func(mt string) bool { return mt == "text/html" || mt == "application/xhtml+xml" }, HTML},
	{func(mt string) bool { return strings.Contains(mt, "xml") }, XML},
	{func(mt string) bool { return strings.Contains(mt, "yaml") }, YAML},
	{func(mt string) bool { return strings.HasPrefix(mt, "text/") }, Text},
}

// Classify names the kind of content a Content-Type header value describes.
// Parameters such as charset are ignored. Unknown types are Binary.
func Classify(contentType string) Category {
	if strings.TrimSpace(contentType) == "" {
		return Missing
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	for _, r := range rules {
		if r.match(mediaType) {
			return r.category
		}
	}
	return Binary
}

// IsStrictJSON reports whether the header value starts with application/json,
// the only content the normalizer accepts. Vendor types such as
// application/vnd.api+json do not qualify. Leading whitespace and letter
// case are ignored.
func IsStrictJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")
}
