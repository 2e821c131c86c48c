package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func TestToggleValueSet(testingHandle *testing.T) {
	testCases := []struct {
		input       string
		expected    bool
		expectError bool
	}{
		{input: "yes", expected: true},
		{input: "ON", expected: true},
		{input: " 1 ", expected: true},
		{input: "", expected: true},
		{input: "no", expected: false},
		{input: "Off", expected: false},
		{input: "0", expected: false},
		{input: "maybe", expectError: true},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.input, func(testingHandle *testing.T) {
			target := !testCase.expected
			value := &toggleValue{target: &target, name: "tree"}
			err := value.Set(testCase.input)
			if testCase.expectError {
				if err == nil {
					testingHandle.Fatalf("expected an error for %q", testCase.input)
				}
				return
			}
			if err != nil {
				testingHandle.Fatalf("Set(%q) failed: %v", testCase.input, err)
			}
			if target != testCase.expected {
				testingHandle.Fatalf("Set(%q) = %v, want %v", testCase.input, target, testCase.expected)
			}
		})
	}
}

func TestRegisterToggleBareFlag(testingHandle *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var enabled bool
	registerToggle(flagSet, &enabled, "tokens", false, "")
	if err := flagSet.Parse([]string{"--tokens"}); err != nil {
		testingHandle.Fatalf("parse failed: %v", err)
	}
	if !enabled {
		testingHandle.Fatalf("bare flag must enable the toggle")
	}
	if flagSet.Lookup("tokens").DefValue != "false" {
		testingHandle.Fatalf("unexpected default value %q", flagSet.Lookup("tokens").DefValue)
	}
}

func TestExpandToggleArguments(testingHandle *testing.T) {
	command := &cobra.Command{Use: "root"}
	child := &cobra.Command{Use: "copy"}
	var clipboardEnabled bool
	registerToggle(child.Flags(), &clipboardEnabled, "clipboard", true, "")
	child.Flags().String("format", "", "")
	command.AddCommand(child)

	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{
			name:      "joins toggle literal",
			arguments: []string{"copy", "--clipboard", "no", "src"},
			expected:  []string{"copy", "--clipboard=no", "src"},
		},
		{
			name:      "keeps path after bare toggle",
			arguments: []string{"copy", "--clipboard", "src"},
			expected:  []string{"copy", "--clipboard", "src"},
		},
		{
			name:      "ignores other flags",
			arguments: []string{"copy", "--format", "xml"},
			expected:  []string{"copy", "--format", "xml"},
		},
		{
			name:      "stops at terminator",
			arguments: []string{"copy", "--", "--clipboard", "off"},
			expected:  []string{"copy", "--", "--clipboard", "off"},
		},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			actual := expandToggleArguments(command, testCase.arguments)
			if !reflect.DeepEqual(actual, testCase.expected) {
				testingHandle.Fatalf("expandToggleArguments(%v) = %v, want %v", testCase.arguments, actual, testCase.expected)
			}
		})
	}
}

func TestExpandToggleArgumentsKeepsExistingPaths(testingHandle *testing.T) {
	workingDirectory := testingHandle.TempDir()
	if err := os.Mkdir(filepath.Join(workingDirectory, "1"), 0o755); err != nil {
		testingHandle.Fatalf("mkdir: %v", err)
	}
	originalDirectory, getwdErr := os.Getwd()
	if getwdErr != nil {
		testingHandle.Fatalf("getwd: %v", getwdErr)
	}
	if err := os.Chdir(workingDirectory); err != nil {
		testingHandle.Fatalf("chdir: %v", err)
	}
	testingHandle.Cleanup(func() { _ = os.Chdir(originalDirectory) })

	command := &cobra.Command{Use: "root"}
	child := &cobra.Command{Use: "copy"}
	var compressEnabled bool
	registerToggle(child.Flags(), &compressEnabled, "compress", false, "")
	command.AddCommand(child)

	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{
			name:      "existing folder named like a literal",
			arguments: []string{"copy", "--compress", "1"},
			expected:  []string{"copy", "--compress", "1"},
		},
		{
			name:      "literal without a matching path",
			arguments: []string{"copy", "--compress", "0"},
			expected:  []string{"copy", "--compress=0"},
		},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			actual := expandToggleArguments(command, testCase.arguments)
			if !reflect.DeepEqual(actual, testCase.expected) {
				testingHandle.Fatalf("expandToggleArguments(%v) = %v, want %v", testCase.arguments, actual, testCase.expected)
			}
		})
	}
}
