package masking

import "strings"

const maskToken = "****"

// SensitiveKeys are snapshot fields that never reach the audit table in clear text.
var SensitiveKeys = []string{"payment_reference"}

// MaskSecret redacts a value while keeping the last four characters for reconciliation.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskKeys returns a copy of input with the string values of keys masked, recursing into nested maps.
func MaskKeys(input map[string]any, keys ...string) map[string]any {
	if input == nil {
		return nil
	}
	sensitive := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		sensitive[key] = struct{}{}
	}
	return maskMap(input, sensitive)
}

func maskMap(input map[string]any, sensitive map[string]struct{}) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		if _, ok := sensitive[key]; ok {
			if s, isString := value.(string); isString {
				out[key] = MaskSecret(s)
				continue
			}
		}
		if nested, ok := value.(map[string]any); ok {
			out[key] = maskMap(nested, sensitive)
			continue
		}
		out[key] = value
	}
	return out
}
