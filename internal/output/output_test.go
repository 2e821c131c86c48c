package output_test

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/temirov/snapsource/internal/output"
	"github.com/temirov/snapsource/internal/types"
)

const sampleTree = "├── src\n" +
	"│   └── index.js\n" +
	"└── package.json\n"

var sampleRecords = []types.FileRecord{
	{Path: "src/index.js", Content: "console.log('hi');"},
	{Path: "package.json", Content: "{}"},
}

const plaintextExpected = "Project Structure:\n\n" +
	sampleTree + "\n\n" +
	"File Contents:\n\n" +
	"--- src/index.js ---\nconsole.log('hi');\n\n" +
	"--- package.json ---\n{}\n\n"

const markdownExpected = "# Project Structure\n\n" +
	"```\n" + sampleTree + "```\n\n" +
	"# File Contents\n\n" +
	"## src/index.js\n\n```javascript\nconsole.log('hi');\n```\n\n" +
	"## package.json\n\n```json\n{}\n```\n\n"

const xmlExpected = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
	"<copy4ai>\n" +
	"  <project_structure>\n" +
	"    ├── src\n" +
	"    │   └── index.js\n" +
	"    └── package.json\n" +
	"  </project_structure>\n" +
	"  <file_contents>\n" +
	"    <file path=\"src/index.js\">\n" +
	"      <![CDATA[console.log('hi');]]>\n" +
	"    </file>\n" +
	"    <file path=\"package.json\">\n" +
	"      <![CDATA[{}]]>\n" +
	"    </file>\n" +
	"  </file_contents>\n" +
	"</copy4ai>"

const xmlStructureExpected = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
	"<copy4ai>\n" +
	"  <project_structure>\n" +
	"    ├── src\n" +
	"    │   └── index.js\n" +
	"    └── package.json\n" +
	"  </project_structure>\n" +
	"</copy4ai>"

func TestRender(t *testing.T) {
	testCases := []struct {
		name     string
		format   types.OutputFormat
		tree     string
		records  []types.FileRecord
		expected string
	}{
		{name: "plaintext", format: types.FormatPlaintext, tree: sampleTree, records: sampleRecords, expected: plaintextExpected},
		{name: "markdown", format: types.FormatMarkdown, tree: sampleTree, records: sampleRecords, expected: markdownExpected},
		{name: "xml", format: types.FormatXML, tree: sampleTree, records: sampleRecords, expected: xmlExpected},
		{name: "plaintext without tree", format: types.FormatPlaintext, records: sampleRecords[1:], expected: "File Contents:\n\n--- package.json ---\n{}\n\n"},
		{name: "plaintext without records", format: types.FormatPlaintext, tree: sampleTree, expected: "Project Structure:\n\n" + sampleTree + "\n\n"},
		{name: "markdown empty", format: types.FormatMarkdown, expected: ""},
		{name: "xml empty", format: types.FormatXML, expected: "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<copy4ai>\n</copy4ai>"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := output.Render(testCase.format, testCase.tree, testCase.records)
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			if result != testCase.expected {
				t.Fatalf("unexpected output:\n%s\nexpected:\n%s", result, testCase.expected)
			}
		})
	}
}

func TestRenderStructure(t *testing.T) {
	testCases := []struct {
		name     string
		format   types.OutputFormat
		expected string
	}{
		{name: "plaintext", format: types.FormatPlaintext, expected: "Project Structure:\n\n" + sampleTree + "\n"},
		{name: "markdown", format: types.FormatMarkdown, expected: "# Project Structure\n\n```\n" + sampleTree + "```\n"},
		{name: "xml", format: types.FormatXML, expected: xmlStructureExpected},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := output.RenderStructure(testCase.format, sampleTree)
			if err != nil {
				t.Fatalf("RenderStructure error: %v", err)
			}
			if result != testCase.expected {
				t.Fatalf("unexpected output:\n%s\nexpected:\n%s", result, testCase.expected)
			}
		})
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	if _, err := output.Render(types.OutputFormat("yaml"), sampleTree, sampleRecords); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
	if _, err := output.RenderStructure(types.OutputFormat(""), sampleTree); err == nil {
		t.Fatalf("expected an error for an empty format")
	}
}

func TestRenderNeverEmitsUndefined(t *testing.T) {
	records := []types.FileRecord{{Path: "empty.txt", Content: ""}}
	for _, format := range []types.OutputFormat{types.FormatPlaintext, types.FormatMarkdown, types.FormatXML} {
		result, err := output.Render(format, "", records)
		if err != nil {
			t.Fatalf("Render(%s) error: %v", format, err)
		}
		if strings.Contains(result, "undefined") || strings.Contains(result, "<nil>") {
			t.Fatalf("Render(%s) leaked a missing value: %q", format, result)
		}
		if !strings.Contains(result, "empty.txt") {
			t.Fatalf("Render(%s) dropped a record with empty content", format)
		}
	}
}

func TestLanguageTag(t *testing.T) {
	testCases := []struct {
		path     string
		expected string
	}{
		{path: "src/index.js", expected: "javascript"},
		{path: "main.go", expected: "go"},
		{path: "config.YML", expected: "yaml"},
		{path: "script.ps1", expected: "powershell"},
		{path: "notes.md", expected: "markdown"},
		{path: "lib/mod.rs", expected: "rust"},
		{path: "build.gradle", expected: "gradle"},
		{path: "Makefile", expected: ""},
		{path: ".gitignore", expected: ""},
		{path: "web/.eslintrc.json", expected: "json"},
		{path: "app.Dockerfile", expected: "dockerfile"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.path, func(t *testing.T) {
			if result := output.LanguageTag(testCase.path); result != testCase.expected {
				t.Fatalf("LanguageTag(%q): expected %q, got %q", testCase.path, testCase.expected, result)
			}
		})
	}
}

func TestEscapeXML(t *testing.T) {
	input := "a & b < c > d \" e ' f \u00a0 g \u2028 h \u2029"
	expected := "a &amp; b &lt; c &gt; d &quot; e &apos; f &#160; g &#8232; h &#8233;"
	if result := output.EscapeXML(input); result != expected {
		t.Fatalf("EscapeXML: expected %q, got %q", expected, result)
	}
	if result := output.EscapeXML("test &amp; demo.xml"); result != "test &amp;amp; demo.xml" {
		t.Fatalf("expected already-escaped text to be escaped again, got %q", result)
	}
}

func TestRenderXMLIsWellFormed(t *testing.T) {
	const trickyContent = "if (a < b && c > d) { s = \"]]>\"; }"
	records := []types.FileRecord{
		{Path: "test & demo.xml", Content: trickyContent},
		{Path: "quote's \"path\".txt", Content: "<![CDATA[nested]]>"},
	}
	tree := "├── quote's \"path\".txt\n└── test & demo.xml\n"
	result, err := output.Render(types.FormatXML, tree, records)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(result, `<file path="test &amp; demo.xml">`) {
		t.Fatalf("expected escaped path attribute, got:\n%s", result)
	}

	decoder := xml.NewDecoder(strings.NewReader(result))
	var decodedPaths []string
	var decodedContents []string
	var currentContent strings.Builder
	insideFile := false
	for {
		token, tokenErr := decoder.Token()
		if errors.Is(tokenErr, io.EOF) {
			break
		}
		if tokenErr != nil {
			t.Fatalf("output is not well-formed XML: %v\n%s", tokenErr, result)
		}
		switch typedToken := token.(type) {
		case xml.StartElement:
			if typedToken.Name.Local == "file" {
				insideFile = true
				currentContent.Reset()
				for _, attribute := range typedToken.Attr {
					if attribute.Name.Local == "path" {
						decodedPaths = append(decodedPaths, attribute.Value)
					}
				}
			}
		case xml.CharData:
			if insideFile {
				currentContent.Write(typedToken)
			}
		case xml.EndElement:
			if typedToken.Name.Local == "file" {
				insideFile = false
				decodedContents = append(decodedContents, strings.TrimSpace(currentContent.String()))
			}
		}
	}

	if len(decodedPaths) != len(records) || len(decodedContents) != len(records) {
		t.Fatalf("expected %d files, decoded paths %v", len(records), decodedPaths)
	}
	for recordIndex, record := range records {
		if decodedPaths[recordIndex] != record.Path {
			t.Fatalf("path round trip: expected %q, got %q", record.Path, decodedPaths[recordIndex])
		}
		if decodedContents[recordIndex] != record.Content {
			t.Fatalf("content round trip: expected %q, got %q", record.Content, decodedContents[recordIndex])
		}
	}
}
