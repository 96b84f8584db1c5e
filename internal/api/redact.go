package api

import "strings"

var sensitiveKeys = []string{"password", "confirmpassword", "token", "accesstoken", "refreshtoken", "secret"}

// Redact returns a copy of data with the values of credential-like keys
// replaced, at any depth.
func Redact(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = "[REDACTED]"
				continue
			}
			out[key] = Redact(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, value := range v {
			out[i] = Redact(value)
		}
		return out
	default:
		return data
	}
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(key, sensitive) {
			return true
		}
	}

	return false
}
