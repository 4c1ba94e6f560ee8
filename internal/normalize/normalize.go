// Package normalize turns raw response bodies into comparable text:
// indented JSON with redacted lines removed.
package normalize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/usestring/pairdiff/internal/cache"
	"github.com/usestring/pairdiff/pkg/contenttype"
)

var (
	// ErrUnsupportedContentType means the Content-Type is not application/json.
	ErrUnsupportedContentType = errors.New("unsupported content type")
	// ErrMalformedBody means the body is not valid JSON.
	ErrMalformedBody = errors.New("malformed JSON body")
	// ErrInvalidFilter means a jq filter or an ignore path could not be applied.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Options controls one normalization beyond the content-type check.
type Options struct {
	Redactions  []string // Lines containing any of these are dropped
	IgnorePaths []string // sjson paths deleted before formatting
	Filter      string   // Optional jq expression
}

// Normalize formats a JSON body and applies line redactions.
func Normalize(raw []byte, contentType string, redactions []string) (string, error) {
	return apply(context.Background(), raw, contentType, Options{Redactions: redactions})
}

// Normalizer applies Options and memoizes results by body digest.
// A nil memo disables memoization. It is safe for concurrent use.
type Normalizer struct {
	memo *cache.BodyMemo
}

// New creates a Normalizer. memo may be nil.
func New(memo *cache.BodyMemo) *Normalizer {
	return &Normalizer{memo: memo}
}

// Normalize runs the full pipeline: content-type check, JSON validation,
// ignore paths, jq filter, indentation and redaction. Errors are never
// memoized.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte, contentType string, opts Options) (string, error) {
	if n == nil || n.memo == nil {
		return apply(ctx, raw, contentType, opts)
	}

	key := memoKey(raw, contentType, opts)
	if out, ok := n.memo.Get(key); ok {
		return out, nil
	}
	out, err := apply(ctx, raw, contentType, opts)
	if err != nil {
		return "", err
	}
	n.memo.Put(key, out)
	return out, nil
}

func apply(ctx context.Context, raw []byte, contentType string, opts Options) (string, error) {
	if !contenttype.IsStrictJSON(contentType) {
		if contentType == "" {
			return "", fmt.Errorf("%w: empty", ErrUnsupportedContentType)
		}
		return "", fmt.Errorf("%w: %q (%s)", ErrUnsupportedContentType, contentType, contenttype.Classify(contentType))
	}
	if !gjson.ValidBytes(raw) {
		return "", ErrMalformedBody
	}

	body := raw
	var err error
	if len(opts.IgnorePaths) > 0 {
		body, err = deletePaths(body, opts.IgnorePaths)
		if err != nil {
			return "", err
		}
	}
	if strings.TrimSpace(opts.Filter) != "" {
		body, err = runFilter(ctx, body, opts.Filter)
		if err != nil {
			return "", err
		}
	}

	return Redact(Pretty(body), opts.Redactions), nil
}

// memoKey digests everything the output depends on. The content type only
// matters through the JSON check, which has already passed for any
// memoized entry.
func memoKey(raw []byte, contentType string, opts Options) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(strings.ToLower(strings.TrimSpace(contentType)))
	write(opts.Filter)
	for _, p := range opts.IgnorePaths {
		write("p:" + p)
	}
	for _, r := range opts.Redactions {
		write("r:" + r)
	}
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}
