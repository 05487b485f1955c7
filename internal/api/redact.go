package api

import (
	"net/http"
	"strings"
)

// redactedValue replaces credential material in debug output.
const redactedValue = "<redacted>"

// Sanitize returns a deep copy of v with credential-bearing values replaced
// by a placeholder. It understands http.Header, string-keyed maps, and
// slices; everything else passes through unchanged. The input is never
// mutated.
func Sanitize(v any) any {
	switch t := v.(type) {
	case http.Header:
		out := make(http.Header, len(t))
		for k, vals := range t {
			if sensitiveKey(k) {
				out[k] = []string{redactedValue}
				continue
			}
			out[k] = append([]string(nil), vals...)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if sensitiveKey(k) {
				out[k] = redactedValue
				continue
			}
			out[k] = Sanitize(val)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, val := range t {
			if sensitiveKey(k) {
				out[k] = redactedValue
				continue
			}
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Sanitize(val)
		}
		return out
	default:
		return v
	}
}

func sensitiveKey(k string) bool {
	switch strings.ToLower(k) {
	case "authorization", "proxy-authorization", "cookie", "set-cookie", "secret", "api_secret":
		return true
	}
	return false
}
