package config

import "strings"

// Truthy interprets an environment flag. Recognized true forms:
// "1", "true", "yes", "y", "on" (case-insensitive). Anything else,
// including an unset variable, is false.
func Truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
