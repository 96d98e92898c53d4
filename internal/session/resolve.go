package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// ErrTargetUnavailable marks a directive target that is missing or unusable for a benign reason.
var ErrTargetUnavailable = errors.New("directive target unavailable")

// ResolvePath joins a relative argument to the working directory. Absolute arguments are returned cleaned.
func (session Session) ResolvePath(argument string) string {
	if filepath.IsAbs(argument) {
		return filepath.Clean(argument)
	}
	return filepath.Join(session.WorkingDirectory, argument)
}

// ResolveTarget resolves argument and checks that it names an existing regular file.
// Missing paths, non-directory path components, overlong names, and non-regular files yield
// ErrTargetUnavailable. Any other stat failure is returned as is.
func (session Session) ResolveTarget(argument string) (string, error) {
	if argument == "" {
		return "", fmt.Errorf("%w: empty path", ErrTargetUnavailable)
	}
	resolvedPath := session.ResolvePath(argument)
	fileInformation, statError := os.Stat(resolvedPath)
	if statError != nil {
		if isBenignStatError(statError) {
			return "", fmt.Errorf("%w: %s: %v", ErrTargetUnavailable, resolvedPath, statError)
		}
		return "", fmt.Errorf("stat failed for '%s': %w", resolvedPath, statError)
	}
	if !fileInformation.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrTargetUnavailable, resolvedPath)
	}
	return resolvedPath, nil
}

func isBenignStatError(statError error) bool {
	return errors.Is(statError, fs.ErrNotExist) ||
		errors.Is(statError, syscall.ENOTDIR) ||
		errors.Is(statError, syscall.ENAMETOOLONG)
}
