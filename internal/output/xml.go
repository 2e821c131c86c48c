package output

import (
	"bytes"
	"strings"

	"github.com/temirov/snapsource/internal/types"
)

const (
	xmlDeclaration         = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	xmlRootOpen            = "<copy4ai>\n"
	xmlRootClose           = "</copy4ai>"
	xmlStructureOpen       = "  <project_structure>\n"
	xmlStructureClose      = "\n  </project_structure>\n"
	xmlStructureLineIndent = "    "
	xmlContentsOpen        = "  <file_contents>\n"
	xmlContentsClose       = "  </file_contents>\n"
	xmlFileOpenPrefix      = `    <file path="`
	xmlFileOpenSuffix      = "\">\n"
	xmlCharacterDataOpen   = "      <![CDATA["
	xmlCharacterDataClose  = "]]>\n"
	xmlFileClose           = "    </file>\n"

	characterDataTerminator      = "]]>"
	characterDataSplitTerminator = "]]]]><![CDATA[>"
)

// xmlEscaper replaces the five predefined entities plus the no-break space and the Unicode
// line and paragraph separators.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
	"\u00a0", "&#160;",
	"\u2028", "&#8232;",
	"\u2029", "&#8233;",
)

// EscapeXML escapes text for use in element content and attribute values.
func EscapeXML(text string) string {
	return xmlEscaper.Replace(text)
}

// SafeCharacterData splits every "]]>" so that arbitrary text can be embedded in a CDATA section.
func SafeCharacterData(text string) string {
	return strings.ReplaceAll(text, characterDataTerminator, characterDataSplitTerminator)
}

func renderXML(tree string, records []types.FileRecord) string {
	var buffer bytes.Buffer
	buffer.WriteString(xmlDeclaration)
	buffer.WriteString(xmlRootOpen)

	if tree != "" {
		treeLines := strings.Split(strings.TrimRight(tree, lineBreak), lineBreak)
		indentedLines := make([]string, 0, len(treeLines))
		for _, treeLine := range treeLines {
			indentedLines = append(indentedLines, xmlStructureLineIndent+EscapeXML(treeLine))
		}
		buffer.WriteString(xmlStructureOpen)
		buffer.WriteString(strings.Join(indentedLines, lineBreak))
		buffer.WriteString(xmlStructureClose)
	}

	if len(records) > 0 {
		buffer.WriteString(xmlContentsOpen)
		for _, record := range records {
			buffer.WriteString(xmlFileOpenPrefix)
			buffer.WriteString(EscapeXML(record.Path))
			buffer.WriteString(xmlFileOpenSuffix)
			buffer.WriteString(xmlCharacterDataOpen)
			buffer.WriteString(SafeCharacterData(record.Content))
			buffer.WriteString(xmlCharacterDataClose)
			buffer.WriteString(xmlFileClose)
		}
		buffer.WriteString(xmlContentsClose)
	}

	buffer.WriteString(xmlRootClose)
	return buffer.String()
}
