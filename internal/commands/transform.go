package commands

import (
	"regexp"
	"strings"
)

const lineBreak = "\n"

var (
	// blockCommentExpression matches /* ... */ non-greedily across lines.
	blockCommentExpression = regexp.MustCompile(`(?s)/\*.*?\*/`)
	// lineCommentExpression matches // up to, but not including, the end of the line.
	lineCommentExpression = regexp.MustCompile(`//[^\r\n\x{2028}\x{2029}]*`)
)

// RemoveComments strips C-style comments lexically. Block comments are removed before line
// comments so that a "//" inside a block comment cannot start a line comment. Comment markers
// inside string literals are not recognized and will be stripped as well.
func RemoveComments(content string) string {
	withoutBlockComments := blockCommentExpression.ReplaceAllString(content, "")
	return lineCommentExpression.ReplaceAllString(withoutBlockComments, "")
}

// Compress trims every line, drops lines that become empty and rejoins the rest with a
// single line break. The transform is lossy for whitespace-sensitive languages.
func Compress(content string) string {
	lines := strings.Split(content, lineBreak)
	keptLines := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" {
			continue
		}
		keptLines = append(keptLines, trimmedLine)
	}
	return strings.Join(keptLines, lineBreak)
}

// ApplyTransforms runs comment removal and then compaction, each when enabled.
func ApplyTransforms(content string, removeComments bool, compress bool) string {
	processedContent := content
	if removeComments {
		processedContent = RemoveComments(processedContent)
	}
	if compress {
		processedContent = Compress(processedContent)
	}
	return processedContent
}
