package main_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// #nosec G204
func buildBinary(testSetup *testing.T) string {
	testSetup.Helper()
	temporaryDirectory := testSetup.TempDir()
	binaryName := "spp_integration_test_binary"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	binaryPath := filepath.Join(temporaryDirectory, binaryName)

	buildCommand := exec.Command("go", "build", "-o", binaryPath, ".")
	outputData, buildErr := buildCommand.CombinedOutput()
	if buildErr != nil {
		testSetup.Fatalf("Failed to build binary: %v\nBuild Output:\n%s", buildErr, string(outputData))
	}
	return binaryPath
}

// #nosec G204
func runCommand(testSetup *testing.T, binaryPath string, standardInput string, arguments []string, workingDirectory string) (string, string, error) {
	testSetup.Helper()
	command := exec.Command(binaryPath, arguments...)
	command.Dir = workingDirectory
	command.Env = append(os.Environ(), "HOME="+testSetup.TempDir())
	command.Stdin = strings.NewReader(standardInput)

	var standardOutputBuffer, standardErrorBuffer bytes.Buffer
	command.Stdout = &standardOutputBuffer
	command.Stderr = &standardErrorBuffer
	runError := command.Run()
	return standardOutputBuffer.String(), standardErrorBuffer.String(), runError
}

func TestBinaryPreprocessesFiles(testSetup *testing.T) {
	if testing.Short() {
		testSetup.Skip("builds the binary")
	}
	binaryPath := buildBinary(testSetup)
	workingDirectory := testSetup.TempDir()
	files := map[string]string{
		"script.sh":         "#!/bin/sh\n#include lib/functions.sh\n#ignore-next\necho debug\nmain\n",
		"lib/functions.sh":  "#insert banner.txt\nmain() { echo hi; }\n#ignore\ninternal notes\n",
		"lib/banner.txt":    "# banner\n",
		"lib/unrelated.txt": "unused\n",
	}
	for relativePath, content := range files {
		fullPath := filepath.Join(workingDirectory, relativePath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			testSetup.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
			testSetup.Fatalf("write %s: %v", relativePath, err)
		}
	}

	standardOutput, standardError, runError := runCommand(testSetup, binaryPath, "", []string{"script.sh"}, workingDirectory)
	if runError != nil {
		testSetup.Fatalf("command failed: %v\n%s", runError, standardError)
	}
	expected := "#!/bin/sh\n# banner\nmain() { echo hi; }\nmain\n"
	if standardOutput != expected {
		testSetup.Fatalf("expected %q, got %q", expected, standardOutput)
	}
}

func TestBinaryReportsFailures(testSetup *testing.T) {
	if testing.Short() {
		testSetup.Skip("builds the binary")
	}
	binaryPath := buildBinary(testSetup)
	workingDirectory := testSetup.TempDir()

	testCases := []struct {
		name             string
		arguments        []string
		input            string
		expectedError    string
		expectedExitCode int
	}{
		{name: "missing input", arguments: []string{"absent.txt"}, expectedError: "no such file or directory", expectedExitCode: 24},
		{name: "directory input", arguments: []string{"."}, expectedError: "not a file", expectedExitCode: 26},
		{name: "unknown flag", arguments: []string{"--bogus"}, expectedError: "unknown flag", expectedExitCode: 5},
		{name: "zero include depth", arguments: []string{"--max-include-depth", "0"}, expectedError: "at least 1", expectedExitCode: 3},
		{name: "include cycle", arguments: []string{"-"}, input: "#include loop.txt\n", expectedError: "include cycle detected", expectedExitCode: 1},
	}
	loopPath := filepath.Join(workingDirectory, "loop.txt")
	if err := os.WriteFile(loopPath, []byte("#include loop.txt\n"), 0o600); err != nil {
		testSetup.Fatalf("write loop file: %v", err)
	}

	for _, testCase := range testCases {
		testSetup.Run(testCase.name, func(t *testing.T) {
			_, standardError, runError := runCommand(t, binaryPath, testCase.input, testCase.arguments, workingDirectory)
			exitError, isExitError := runError.(*exec.ExitError)
			if !isExitError {
				t.Fatalf("expected exit error, got %v", runError)
			}
			if exitError.ExitCode() != testCase.expectedExitCode {
				t.Fatalf("expected exit code %d, got %d", testCase.expectedExitCode, exitError.ExitCode())
			}
			if !strings.Contains(standardError, testCase.expectedError) {
				t.Fatalf("expected %q in standard error, got %q", testCase.expectedError, standardError)
			}
		})
	}
}
