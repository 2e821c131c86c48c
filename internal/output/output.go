// Package output serializes a rendered tree and a list of file records into one of the
// supported snapshot formats. Every function here is pure.
package output

import (
	"fmt"

	"github.com/temirov/snapsource/internal/types"
)

const errorUnsupportedFormat = "unsupported output format %q"

// Render builds the snapshot text. Empty sections are omitted: an empty tree drops the
// structure section and an empty record list drops the contents section.
func Render(format types.OutputFormat, tree string, records []types.FileRecord) (string, error) {
	switch format {
	case types.FormatPlaintext:
		return renderPlaintext(tree, records), nil
	case types.FormatMarkdown:
		return renderMarkdown(tree, records), nil
	case types.FormatXML:
		return renderXML(tree, records), nil
	default:
		return "", fmt.Errorf(errorUnsupportedFormat, format)
	}
}

// RenderStructure builds the structure-only variant, which carries the tree and no contents section.
func RenderStructure(format types.OutputFormat, tree string) (string, error) {
	switch format {
	case types.FormatPlaintext:
		return renderPlaintextStructure(tree), nil
	case types.FormatMarkdown:
		return renderMarkdownStructure(tree), nil
	case types.FormatXML:
		return renderXML(tree, nil), nil
	default:
		return "", fmt.Errorf(errorUnsupportedFormat, format)
	}
}
