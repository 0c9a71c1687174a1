package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// ExportFilename turns a display name into a safe file name for export
// bundles: unsafe characters collapse to single underscores.
func ExportFilename(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "untitled"
	}
	return cleaned
}

// ParseUintParam parses a numeric path or query parameter.
func ParseUintParam(value string) (uint, error) {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

// ParseIntDefault parses an optional numeric query parameter, falling back
// to the default when empty or malformed.
func ParseIntDefault(value string, defaultVal int) int {
	if value == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultVal
	}
	return parsed
}
