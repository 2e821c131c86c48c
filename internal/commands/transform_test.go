package commands_test

import (
	"testing"

	"github.com/temirov/snapsource/internal/commands"
)

func TestRemoveComments(testingHandle *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "line and block comments", input: "// a\ncode();\n/* b\nc */\nmore();", expected: "\ncode();\n\nmore();"},
		{name: "trailing line comment", input: "x := 1 // note\r\ny := 2", expected: "x := 1 \r\ny := 2"},
		{name: "line marker inside block comment", input: "a /* // b */ c", expected: "a  c"},
		{name: "non-greedy block comments", input: "/* one */keep/* two */", expected: "keep"},
		{name: "no comments", input: "plain text", expected: "plain text"},
		{name: "empty", input: "", expected: ""},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			result := commands.RemoveComments(testCase.input)
			if result != testCase.expected {
				testingHandle.Fatalf("RemoveComments(%q): expected %q, got %q", testCase.input, testCase.expected, result)
			}
			if again := commands.RemoveComments(result); again != result {
				testingHandle.Fatalf("RemoveComments is not idempotent: %q then %q", result, again)
			}
		})
	}
}

func TestCompress(testingHandle *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "trims and drops blank lines", input: "  a  \n\n\t b\n   \n", expected: "a\nb"},
		{name: "windows line endings", input: "a\r\n\r\nb\r\n", expected: "a\nb"},
		{name: "only whitespace", input: " \n\t\n", expected: ""},
		{name: "already compact", input: "a\nb", expected: "a\nb"},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			result := commands.Compress(testCase.input)
			if result != testCase.expected {
				testingHandle.Fatalf("Compress(%q): expected %q, got %q", testCase.input, testCase.expected, result)
			}
			if again := commands.Compress(result); again != result {
				testingHandle.Fatalf("Compress is not idempotent: %q then %q", result, again)
			}
		})
	}
}

func TestApplyTransformsOrder(testingHandle *testing.T) {
	input := "// header\n  code();  \n/* block */\n\n  next(); // tail\n"
	testCases := []struct {
		name           string
		removeComments bool
		compress       bool
		expected       string
	}{
		{name: "no transforms", expected: input},
		{name: "comments only", removeComments: true, expected: "\n  code();  \n\n\n  next(); \n"},
		{name: "compress only", compress: true, expected: "// header\ncode();\n/* block */\nnext(); // tail"},
		{name: "comments then compress", removeComments: true, compress: true, expected: "code();\nnext();"},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			result := commands.ApplyTransforms(input, testCase.removeComments, testCase.compress)
			if result != testCase.expected {
				testingHandle.Fatalf("expected %q, got %q", testCase.expected, result)
			}
		})
	}
}
