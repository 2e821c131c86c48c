// Package utils contains general helper functions used across snapsource.
package utils

import (
	"path/filepath"
	"strings"
)

const (
	// GitIgnoreFileName is the name of the root-level ignore file honored by the ignore policy.
	GitIgnoreFileName = ".gitignore"
	// ConfigFileName is the name of the local configuration file.
	ConfigFileName = ".snapsource.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home that holds the global configuration.
	GlobalConfigDirectoryName = ".snapsource"
	// GlobalConfigFileName is the name of the global configuration file.
	GlobalConfigFileName = "config.yaml"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept. Blank patterns are dropped.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if _, exists := encounteredPatterns[trimmedPattern]; !exists {
			encounteredPatterns[trimmedPattern] = struct{}{}
			result = append(result, trimmedPattern)
		}
	}
	return result
}

// RelativeSlashPath calculates the path of fullPath relative to root using forward slashes.
// It returns an empty string when fullPath and root resolve to the same location, and
// the cleaned, slash-converted fullPath when no relative path exists.
func RelativeSlashPath(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	cleanRoot := filepath.Clean(root)
	if cleanPath == cleanRoot {
		return ""
	}
	relativePath, relErr := filepath.Rel(cleanRoot, cleanPath)
	if relErr != nil {
		return filepath.ToSlash(cleanPath)
	}
	return NormalizeSlashes(relativePath)
}

// NormalizeSlashes converts both host separators and stray backslashes to forward slashes.
func NormalizeSlashes(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "\\", pathSegmentSeparator)
}

// IsWithinDirectory reports whether candidatePath equals directoryPath or is one of its descendants.
// Both paths must be absolute and cleaned.
func IsWithinDirectory(candidatePath, directoryPath string) bool {
	if candidatePath == directoryPath {
		return true
	}
	prefix := directoryPath
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(candidatePath, prefix)
}
