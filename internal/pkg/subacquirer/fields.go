package subacquirer

import "encoding/json"

// Ordered-lookup helpers shared by both adapters. Provider payloads name
// the same fact under different keys, so callers pass candidates in
// priority order.

// firstString returns the first key whose value is a non-empty string.
func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := stringValue(m, key); ok {
			return s, true
		}
	}
	return "", false
}

func stringValue(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// numberValue reads a numeric field. JSON decoding yields float64, but
// payloads assembled in-process may carry ints or json.Number.
func numberValue(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func mapValue(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	nested, ok := v.(map[string]any)
	if !ok || len(nested) == 0 {
		return nil, false
	}
	return nested, true
}

// optString returns a pointer to the string under key, or nil when absent
// or not a string. Used for fields that must never overwrite existing data
// with empty values.
func optString(m map[string]any, key string) *string {
	if s, ok := stringValue(m, key); ok {
		return &s
	}
	return nil
}

// rawStatus reads the provider status field, coercing non-string values to
// the raw default rather than rejecting the whole payload.
func rawStatus(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return "PENDING"
	}
	s, ok := v.(string)
	if !ok {
		return "PENDING"
	}
	return s
}
