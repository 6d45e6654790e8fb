package utils

import "strings"

// IsBlank reports whether a string is empty or whitespace only
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateFilename validates the filename to prevent path traversal
func ValidateFilename(filename string) bool {
	if filename == "" {
		return false
	}
	for _, char := range []string{"..", "/", "\\"} {
		if strings.Contains(filename, char) {
			return false
		}
	}
	return true
}
