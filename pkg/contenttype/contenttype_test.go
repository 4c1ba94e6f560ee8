package contenttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType string
		want        Category
	}{
		{"application/json", JSON},
		{"application/json; charset=utf-8", JSON},
		{"APPLICATION/JSON", JSON},
		{"application/vnd.api+json", VendorJSON},
		{"application/problem+json", VendorJSON},
		{"text/html; charset=utf-8", HTML},
		{"application/xhtml+xml", HTML},
		{"application/xml", XML},
		{"text/xml", XML},
		{"application/x-yaml", YAML},
		{"text/plain", Text},
		{"text/csv", Text},
		{"image/png", Binary},
		{"application/octet-stream", Binary},
		{"", Missing},
		{"   ", Missing},
		{"not a media type;;", Binary},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.contentType))
		})
	}
}

func TestIsStrictJSON(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"  application/json", true},
		{"application/jsonp", true},
		{"application/vnd.api+json", false},
		{"text/json", false},
		{"text/html", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStrictJSON(tt.contentType))
		})
	}
}
