package util

import (
	"errors"
	"strings"
)

var errBadFileName = errors.New("invalid file name")

// SanitizeFileName rejects traversal sequences and flattens path
// separators so the result is safe to embed in a storage key.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errBadFileName
	}
	s := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(name))
	if s == "" {
		return "", errBadFileName
	}
	return s, nil
}
