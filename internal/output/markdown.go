package output

import (
	"bytes"
	"path"
	"strings"

	"github.com/temirov/snapsource/internal/types"
)

const (
	markdownStructureHeader = "# Project Structure\n\n"
	markdownContentsHeader  = "# File Contents\n\n"
	markdownFileHeading     = "## "
	markdownFence           = "```"
	extensionSeparator      = "."
)

// languageTags maps file extensions to the fence language used in markdown output.
// Extensions missing from the table are used as the tag unchanged.
var languageTags = map[string]string{
	"js":         "javascript",
	"ts":         "typescript",
	"jsx":        "jsx",
	"tsx":        "tsx",
	"py":         "python",
	"rb":         "ruby",
	"go":         "go",
	"rs":         "rust",
	"php":        "php",
	"java":       "java",
	"c":          "c",
	"cpp":        "cpp",
	"cs":         "csharp",
	"html":       "html",
	"css":        "css",
	"scss":       "scss",
	"sass":       "sass",
	"less":       "less",
	"json":       "json",
	"xml":        "xml",
	"yaml":       "yaml",
	"yml":        "yaml",
	"md":         "markdown",
	"sh":         "bash",
	"ps1":        "powershell",
	"sql":        "sql",
	"dockerfile": "dockerfile",
}

// LanguageTag returns the fence language for a record path. The extension is taken from the
// base name after any leading dots are trimmed, so ".gitignore" has none and ".eslintrc.json"
// is "json". A path without an extension yields an empty tag.
func LanguageTag(recordPath string) string {
	baseName := strings.TrimLeft(path.Base(strings.ReplaceAll(recordPath, "\\", "/")), extensionSeparator)
	separatorIndex := strings.LastIndex(baseName, extensionSeparator)
	if separatorIndex < 0 {
		return ""
	}
	extension := strings.ToLower(baseName[separatorIndex+1:])
	if tag, known := languageTags[extension]; known {
		return tag
	}
	return extension
}

func renderMarkdown(tree string, records []types.FileRecord) string {
	var buffer bytes.Buffer
	if tree != "" {
		buffer.WriteString(markdownStructureHeader)
		buffer.WriteString(markdownFence + lineBreak)
		buffer.WriteString(tree)
		buffer.WriteString(markdownFence + paragraphBreak)
	}
	if len(records) > 0 {
		buffer.WriteString(markdownContentsHeader)
		for _, record := range records {
			buffer.WriteString(markdownFileHeading)
			buffer.WriteString(record.Path)
			buffer.WriteString(paragraphBreak)
			buffer.WriteString(markdownFence)
			buffer.WriteString(LanguageTag(record.Path))
			buffer.WriteString(lineBreak)
			buffer.WriteString(record.Content)
			buffer.WriteString(lineBreak)
			buffer.WriteString(markdownFence + paragraphBreak)
		}
	}
	return buffer.String()
}

func renderMarkdownStructure(tree string) string {
	return markdownStructureHeader + markdownFence + lineBreak + tree + markdownFence + lineBreak
}
