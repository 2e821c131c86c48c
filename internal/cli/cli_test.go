package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

type recordingClipboard struct {
	copied []string
}

func (clipboard *recordingClipboard) Copy(text string) error {
	clipboard.copied = append(clipboard.copied, text)
	return nil
}

type fixedCounter struct {
	tokens int
}

func (counter fixedCounter) Name() string { return "fixed" }

func (counter fixedCounter) CountString(string) (int, error) { return counter.tokens, nil }

func createWorkspace(testingHandle *testing.T, localConfiguration string) string {
	testingHandle.Helper()
	homeDirectory := testingHandle.TempDir()
	testingHandle.Setenv("HOME", homeDirectory)
	testingHandle.Setenv("USERPROFILE", homeDirectory)

	workspace := testingHandle.TempDir()
	files := map[string]string{
		"a.txt":         "alpha",
		"sub/b.txt":     "beta",
		"debug.log":     "noise",
		".env":          "SECRET=1",
		"sub/deep/c.go": "package deep // tail\n",
	}
	for relativePath, content := range files {
		absolutePath := filepath.Join(workspace, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(absolutePath), 0o755); err != nil {
			testingHandle.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(absolutePath, []byte(content), 0o600); err != nil {
			testingHandle.Fatalf("write %s: %v", relativePath, err)
		}
	}
	if localConfiguration != "" {
		if err := os.WriteFile(filepath.Join(workspace, ".snapsource.yaml"), []byte(localConfiguration), 0o600); err != nil {
			testingHandle.Fatalf("write config: %v", err)
		}
	}
	return workspace
}

func runCommand(testingHandle *testing.T, dependencies Dependencies, arguments ...string) (string, string, error) {
	testingHandle.Helper()
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	dependencies.Stdout = &stdout
	dependencies.Stderr = &stderr
	if dependencies.Logger == nil {
		dependencies.Logger = zaptest.NewLogger(testingHandle)
	}
	rootCommand := NewRootCommand(dependencies)
	rootCommand.SetArgs(expandToggleArguments(rootCommand, arguments))
	err := rootCommand.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCopyCommandWritesToStandardOutput(testingHandle *testing.T) {
	workspace := createWorkspace(testingHandle, "")
	stdout, stderr, err := runCommand(testingHandle, Dependencies{},
		"copy", "--root", workspace, "--clipboard", "no", "--format", "plaintext")
	if err != nil {
		testingHandle.Fatalf("copy failed: %v", err)
	}
	expectedFragments := []string{
		"Project Structure:\n\n",
		"--- a.txt ---\nalpha\n\n",
		"--- sub/b.txt ---\nbeta\n\n",
		"--- sub/deep/c.go ---\npackage deep // tail\n",
	}
	for _, fragment := range expectedFragments {
		if !strings.Contains(stdout, fragment) {
			testingHandle.Errorf("output lacks %q:\n%s", fragment, stdout)
		}
	}
	for _, hidden := range []string{"debug.log", ".env", "SECRET"} {
		if strings.Contains(stdout, hidden) {
			testingHandle.Errorf("output must not mention %q:\n%s", hidden, stdout)
		}
	}
	if stderr != "" {
		testingHandle.Errorf("expected no summary on standard output delivery, got %q", stderr)
	}
}

func TestCopyCommandFlagsOverrideConfiguration(testingHandle *testing.T) {
	testCases := []struct {
		name              string
		localConfig       string
		arguments         []string
		expectedFragments []string
		absentFragments   []string
	}{
		{
			name:              "configuration file selects xml",
			localConfig:       "format: xml\n",
			expectedFragments: []string{"<copy4ai>", `<file path="a.txt">`},
		},
		{
			name:              "flag wins over configuration",
			localConfig:       "format: xml\n",
			arguments:         []string{"--format", "markdown"},
			expectedFragments: []string{"# Project Structure", "# File Contents", "## a.txt"},
			absentFragments:   []string{"<copy4ai>"},
		},
		{
			name:              "comment removal and tree toggle",
			arguments:         []string{"--format", "plaintext", "--remove-comments", "--tree=off"},
			expectedFragments: []string{"--- sub/deep/c.go ---\npackage deep \n"},
			absentFragments:   []string{"Project Structure", "// tail"},
		},
		{
			name:              "extra exclusion pattern",
			arguments:         []string{"--format", "plaintext", "-e", "sub/"},
			expectedFragments: []string{"--- a.txt ---"},
			absentFragments:   []string{"b.txt", "c.go"},
		},
		{
			name:              "dot files shown on request",
			arguments:         []string{"--format", "plaintext", "--hide-dot-files", "false"},
			expectedFragments: []string{"--- .env ---\nSECRET=1"},
		},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			workspace := createWorkspace(testingHandle, testCase.localConfig)
			arguments := append([]string{"copy", "--root", workspace, "--clipboard=false"}, testCase.arguments...)
			stdout, _, err := runCommand(testingHandle, Dependencies{}, arguments...)
			if err != nil {
				testingHandle.Fatalf("copy failed: %v", err)
			}
			for _, fragment := range testCase.expectedFragments {
				if !strings.Contains(stdout, fragment) {
					testingHandle.Errorf("output lacks %q:\n%s", fragment, stdout)
				}
			}
			for _, fragment := range testCase.absentFragments {
				if strings.Contains(stdout, fragment) {
					testingHandle.Errorf("output must not contain %q:\n%s", fragment, stdout)
				}
			}
		})
	}
}

func TestCopyCommandReportsClipboardSummary(testingHandle *testing.T) {
	workspace := createWorkspace(testingHandle, "")
	sink := &recordingClipboard{}
	stdout, stderr, err := runCommand(testingHandle,
		Dependencies{Clipboard: sink, Counter: fixedCounter{tokens: 9000}},
		"copy", "--root", workspace, "--tokens", "--model", "gpt-4")
	if err != nil {
		testingHandle.Fatalf("copy failed: %v", err)
	}
	if stdout != "" {
		testingHandle.Errorf("clipboard delivery must not write to standard output, got %q", stdout)
	}
	if len(sink.copied) != 1 || !strings.Contains(sink.copied[0], "# File Contents") {
		testingHandle.Fatalf("expected one markdown snapshot on the clipboard, got %v", sink.copied)
	}
	if !strings.Contains(stderr, "Copied to clipboard: markdown format, 9000 tokens, $") {
		testingHandle.Errorf("unexpected summary: %q", stderr)
	}
	if !strings.Contains(stderr, "WARNING: Token count (9000) exceeds the set limit (8192).") {
		testingHandle.Errorf("expected token limit warning, got %q", stderr)
	}
}

func TestStructureCommandUsesSelectedFolderAsRoot(testingHandle *testing.T) {
	workspace := createWorkspace(testingHandle, "")
	stdout, _, err := runCommand(testingHandle, Dependencies{},
		"s", "--root", workspace, "--clipboard=false", "--format", "plaintext", filepath.Join(workspace, "sub"))
	if err != nil {
		testingHandle.Fatalf("structure failed: %v", err)
	}
	expected := "Project Structure:\n\nsub/\n├── deep\n│   └── c.go\n└── b.txt\n\n"
	if stdout != expected {
		testingHandle.Fatalf("unexpected structure:\n%q\nwant\n%q", stdout, expected)
	}
}

func TestSnapshotCommandsRejectInvalidInput(testingHandle *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "unknown format", arguments: []string{"--format", "yaml"}},
		{name: "negative depth", arguments: []string{"--max-depth", "-1"}},
		{name: "zero file size", arguments: []string{"--max-file-size", "0"}},
		{name: "bad toggle literal", arguments: []string{"--tree=maybe"}},
		{name: "missing explicit configuration", arguments: []string{"--config", "absent.yaml"}},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			workspace := createWorkspace(testingHandle, "")
			arguments := append([]string{"copy", "--root", workspace, "--clipboard=false"}, testCase.arguments...)
			if _, _, err := runCommand(testingHandle, Dependencies{}, arguments...); err == nil {
				testingHandle.Fatalf("expected an error")
			}
		})
	}
}

func TestCopyCommandRejectsItemsOutsideWorkspace(testingHandle *testing.T) {
	workspace := createWorkspace(testingHandle, "")
	outside := testingHandle.TempDir()
	_, _, err := runCommand(testingHandle, Dependencies{},
		"copy", "--root", workspace, "--clipboard=false", outside)
	if err == nil {
		testingHandle.Fatalf("expected an error for an item outside the workspace")
	}
}

func TestVersionFlagPrintsVersion(testingHandle *testing.T) {
	stdout, _, err := runCommand(testingHandle, Dependencies{}, "--version")
	if err != nil {
		testingHandle.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "version: ") {
		testingHandle.Fatalf("unexpected version output %q", stdout)
	}
}
