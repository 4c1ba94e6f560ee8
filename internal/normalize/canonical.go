package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// canonicalize re-encodes a valid JSON document compactly so that equal
// values are spelled the same way. Strings are decoded and re-escaped,
// numbers with a fraction or exponent go through float64, and object keys
// keep the order they were received in. Integers are kept digit for digit.
func canonicalize(body []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(body))
	writeValue(&buf, gjson.ParseBytes(body))
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, v gjson.Result) {
	switch v.Type {
	case gjson.String:
		writeString(buf, v.String())
	case gjson.Number:
		buf.WriteString(canonicalNumber(v.Raw))
	case gjson.True:
		buf.WriteString("true")
	case gjson.False:
		buf.WriteString("false")
	case gjson.Null:
		buf.WriteString("null")
	case gjson.JSON:
		if v.IsArray() {
			buf.WriteByte('[')
			n := 0
			v.ForEach(func(_, elem gjson.Result) bool {
				if n > 0 {
					buf.WriteByte(',')
				}
				n++
				writeValue(buf, elem)
				return true
			})
			buf.WriteByte(']')
			return
		}
		buf.WriteByte('{')
		n := 0
		v.ForEach(func(key, val gjson.Result) bool {
			if n > 0 {
				buf.WriteByte(',')
			}
			n++
			writeString(buf, key.String())
			buf.WriteByte(':')
			writeValue(buf, val)
			return true
		})
		buf.WriteByte('}')
	}
}

// writeString writes s as a JSON string. Only quotes, backslashes and
// control characters are escaped.
func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
}

func canonicalNumber(raw string) string {
	if !strings.ContainsAny(raw, ".eE") {
		return raw
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	out, err := json.Marshal(f)
	if err != nil {
		return raw
	}
	return string(out)
}
