// Package types defines every cross‑package data structure used by the snapsource CLI.
package types

import (
	"fmt"
	"strings"
)

// OutputFormat selects the textual encoding of a snapshot.
type OutputFormat string

const (
	FormatPlaintext OutputFormat = "plaintext"
	FormatMarkdown  OutputFormat = "markdown"
	FormatXML       OutputFormat = "xml"
)

const (
	CommandCopy      = "copy"
	CommandStructure = "structure"
	CommandInit      = "init"
)

const (
	// DefaultMaxDepth bounds the rendered tree when no depth is configured.
	DefaultMaxDepth = 5
	// DefaultMaxFileSize is the per-file content cap in bytes.
	DefaultMaxFileSize int64 = 1024 * 1024
	// DefaultTokenModel names the model used for token estimation.
	DefaultTokenModel = "gpt-4o"
)

// DefaultExcludePatterns are applied when the configuration does not specify patterns.
var DefaultExcludePatterns = []string{"node_modules", "*.log"}

const invalidFormatMessage = "invalid format value '%s'"

// ParseOutputFormat converts user input into an OutputFormat.
func ParseOutputFormat(value string) (OutputFormat, error) {
	normalized := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case FormatPlaintext, FormatMarkdown, FormatXML:
		return normalized, nil
	default:
		return "", fmt.Errorf(invalidFormatMessage, value)
	}
}

// ExcludeConfig lists the exclusions applied to one run. Paths are workspace-relative or
// absolute filesystem paths whose whole subtree is excluded; Patterns are gitignore-style globs.
type ExcludeConfig struct {
	Paths    []string
	Patterns []string
}

// TreeEntry is a single visible entry produced while listing one directory.
type TreeEntry struct {
	Name        string
	IsDirectory bool
}

// FileRecord is one collected file. Path is root-relative and always uses forward slashes;
// Content is either the file text or a placeholder describing why the text was omitted.
type FileRecord struct {
	Path    string
	Content string
}

// RunConfiguration is the resolved, read-only snapshot of every tunable for one invocation.
type RunConfiguration struct {
	MaxDepth           int
	MaxFileSize        int64
	UseGitignore       bool
	HideDotFiles       bool
	RemoveComments     bool
	CompressCode       bool
	IncludeTree        bool
	Format             OutputFormat
	Exclude            ExcludeConfig
	TokenCounting      bool
	TokenWarning       bool
	TokenModel         string
	MaxTokens          int
	UseClipboard       bool
	ProgressIndicators bool
}

// DefaultRunConfiguration returns the configuration used when no file or flag overrides a value.
func DefaultRunConfiguration() RunConfiguration {
	return RunConfiguration{
		MaxDepth:     DefaultMaxDepth,
		MaxFileSize:  DefaultMaxFileSize,
		UseGitignore: true,
		HideDotFiles: true,
		IncludeTree:  true,
		Format:       FormatMarkdown,
		Exclude: ExcludeConfig{
			Paths:    []string{},
			Patterns: append([]string{}, DefaultExcludePatterns...),
		},
		TokenWarning: true,
		TokenModel:   DefaultTokenModel,
		UseClipboard: true,
	}
}

// TokenInfo is the result of token and cost estimation for a rendered snapshot.
type TokenInfo struct {
	InputTokens int
	Cost        float64
}
