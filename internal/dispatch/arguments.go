package dispatch

import "strings"

// Arguments are the validated, JSON-decoded arguments of a call.
type Arguments map[string]any

// String returns the trimmed string value for key.
func (a Arguments) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// StringOr returns the string value for key, or def when it is missing or blank.
func (a Arguments) StringOr(key, def string) string {
	if s, ok := a.String(key); ok && s != "" {
		return s
	}
	return def
}
