// Package typeutil provides safe map accessors to prevent panics from failed
// type casts when reading decoded JSON or YAML maps. All helpers use the
// comma-ok idiom and fall back to the caller's default.
package typeutil

// SafeString reads m[key] as a string, falling back to defaultVal.
func SafeString(m map[string]any, key, defaultVal string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return defaultVal
}

// SafeBool reads m[key] as a bool, falling back to defaultVal.
func SafeBool(m map[string]any, key string, defaultVal bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return defaultVal
}

// SafeInt reads m[key] as an int, falling back to defaultVal.
// float64 is accepted because JSON decoding produces it for all numbers.
func SafeInt(m map[string]any, key string, defaultVal int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultVal
	}
}

// SafeFloat reads m[key] as a float64, falling back to defaultVal.
// Integer values are widened.
func SafeFloat(m map[string]any, key string, defaultVal float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return defaultVal
	}
}

// SafeIntSlice reads m[key] as an []int. JSON decoding yields []any of
// float64, so both forms are accepted; a slice with any non-numeric element
// reports false.
func SafeIntSlice(m map[string]any, key string) ([]int, bool) {
	switch v := m[key].(type) {
	case []int:
		return v, true
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}
