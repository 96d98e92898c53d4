package directive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/temirov/spp/internal/session"
)

// Standard directive names.
const (
	NameInsert          = "insert"
	NameInclude         = "include"
	NameIgnore          = "ignore"
	NameEndIgnore       = "end-ignore"
	NameIgnoreNext      = "ignore-next"
	NameIgnoreNextAlias = "ignorenext"
)

// NewStandardRegistry returns a registry with the built-in directives.
func NewStandardRegistry() *Registry {
	return NewRegistry(
		Entry{Name: NameInsert, Behavior: Insert},
		Entry{Name: NameInclude, Behavior: Include},
		Entry{Name: NameIgnore, Behavior: Ignore},
		Entry{Name: NameEndIgnore, Behavior: EndIgnore},
		Entry{Name: NameIgnoreNext, Behavior: IgnoreNext},
		Entry{Name: NameIgnoreNextAlias, Behavior: IgnoreNext},
	)
}

// Insert copies the target file's bytes to the output without interpreting them.
func Insert(invocation Invocation) (Outcome, error) {
	if invocation.Session.Suppressed() {
		invocation.Session.ConsumeIgnoreNext()
		return OutcomeApplied, nil
	}
	targetPath, resolveError := invocation.Session.ResolveTarget(invocation.Argument)
	if resolveError != nil {
		return classifyResolveError(resolveError)
	}

	// #nosec G304
	fileHandle, openError := os.Open(targetPath)
	if openError != nil {
		return OutcomeApplied, fmt.Errorf("insert %s: %w", targetPath, openError)
	}
	defer fileHandle.Close()

	if _, copyError := io.Copy(invocation.Output, fileHandle); copyError != nil {
		return OutcomeApplied, fmt.Errorf("insert %s: %w", targetPath, copyError)
	}
	return OutcomeApplied, nil
}

// Include processes the target file recursively, resolving its own targets against its directory.
func Include(invocation Invocation) (Outcome, error) {
	if invocation.Session.Suppressed() {
		invocation.Session.ConsumeIgnoreNext()
		return OutcomeApplied, nil
	}
	targetPath, resolveError := invocation.Session.ResolveTarget(invocation.Argument)
	if resolveError != nil {
		return classifyResolveError(resolveError)
	}
	if invocation.Includer == nil {
		return OutcomeApplied, fmt.Errorf("include %s: no includer configured", targetPath)
	}
	nested := invocation.Session.Derive(filepath.Dir(targetPath))
	if includeError := invocation.Includer.Include(targetPath, nested); includeError != nil {
		return OutcomeApplied, includeError
	}
	return OutcomeApplied, nil
}

// Ignore starts suppressing literal lines. When the directive line is itself suppressed by
// ignore-next, only that pending suppression is consumed.
func Ignore(invocation Invocation) (Outcome, error) {
	if invocation.Session.ConsumeIgnoreNext() {
		return OutcomeApplied, nil
	}
	invocation.Session.Ignore = true
	return OutcomeApplied, nil
}

// EndIgnore stops suppressing literal lines unless the directive line is itself suppressed by ignore-next.
func EndIgnore(invocation Invocation) (Outcome, error) {
	if invocation.Session.ConsumeIgnoreNext() {
		return OutcomeApplied, nil
	}
	invocation.Session.Ignore = false
	return OutcomeApplied, nil
}

// IgnoreNext suppresses the next candidate line. It has no effect while ignore is active.
func IgnoreNext(invocation Invocation) (Outcome, error) {
	if invocation.Session.ConsumeIgnoreNext() {
		return OutcomeApplied, nil
	}
	if !invocation.Session.Ignore {
		invocation.Session.IgnoreNext = true
	}
	return OutcomeApplied, nil
}

func classifyResolveError(resolveError error) (Outcome, error) {
	if errors.Is(resolveError, session.ErrTargetUnavailable) {
		return OutcomeInvalid, nil
	}
	return OutcomeApplied, resolveError
}
