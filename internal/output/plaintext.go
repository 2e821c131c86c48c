package output

import (
	"bytes"

	"github.com/temirov/snapsource/internal/types"
)

const (
	plaintextStructureHeader = "Project Structure:\n\n"
	plaintextContentsHeader  = "File Contents:\n\n"
	plaintextFileOpen        = "--- "
	plaintextFileClose       = " ---\n"
	paragraphBreak           = "\n\n"
	lineBreak                = "\n"
)

func renderPlaintext(tree string, records []types.FileRecord) string {
	var buffer bytes.Buffer
	if tree != "" {
		buffer.WriteString(plaintextStructureHeader)
		buffer.WriteString(tree)
		buffer.WriteString(paragraphBreak)
	}
	if len(records) > 0 {
		buffer.WriteString(plaintextContentsHeader)
		for _, record := range records {
			buffer.WriteString(plaintextFileOpen)
			buffer.WriteString(record.Path)
			buffer.WriteString(plaintextFileClose)
			buffer.WriteString(record.Content)
			buffer.WriteString(paragraphBreak)
		}
	}
	return buffer.String()
}

func renderPlaintextStructure(tree string) string {
	return plaintextStructureHeader + tree + lineBreak
}
