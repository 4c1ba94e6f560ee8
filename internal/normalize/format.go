package normalize

import (
	"strings"

	"github.com/tidwall/pretty"
)

// prettyOptions indents by two spaces and keeps every array element on its
// own line. Object keys keep the order they were received in.
var prettyOptions = &pretty.Options{
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Pretty re-encodes a valid JSON document with one spelling per value and
// indents it. "\/" and "/" or 1.50 and 1.5 come out the same. The result
// has no trailing newline and is stable: Pretty(Pretty(x)) == Pretty(x).
func Pretty(body []byte) string {
	out := pretty.PrettyOptions(canonicalize(body), prettyOptions)
	return strings.TrimRight(string(out), "\n")
}

// Redact drops every line that contains any of the redaction substrings.
// Matching is literal and case-sensitive. Surviving lines keep their order.
func Redact(text string, redactions []string) string {
	if len(redactions) == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !containsAny(line, redactions) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func containsAny(line string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}
