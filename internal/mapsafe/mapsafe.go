// Package mapsafe reads typed values out of loosely typed option maps decoded from YAML or JSON.
package mapsafe

// Get retrieves a typed value from a map[string]any.
// If the key is missing or the type cannot be converted, it returns the default value.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case int:
		switch x := val.(type) {
		case int:
			return any(x).(T)
		case int64:
			return any(int(x)).(T)
		case float64:
			return any(int(x)).(T)
		}
	case float64:
		switch x := val.(type) {
		case float64:
			return any(x).(T)
		case int:
			return any(float64(x)).(T)
		}
	case []string:
		switch x := val.(type) {
		case []string:
			return any(x).(T)
		case []any:
			out := make([]string, 0, len(x))
			for _, item := range x {
				s, ok := item.(string)
				if !ok {
					return defaultValue
				}
				out = append(out, s)
			}
			return any(out).(T)
		}
	case map[string]string:
		switch x := val.(type) {
		case map[string]string:
			return any(x).(T)
		case map[string]any:
			out := make(map[string]string, len(x))
			for k, item := range x {
				s, ok := item.(string)
				if !ok {
					return defaultValue
				}
				out[k] = s
			}
			return any(out).(T)
		}
	default:
		// fallback: if type matches exactly
		if v2, ok := val.(T); ok {
			return v2
		}
	}

	return defaultValue
}
