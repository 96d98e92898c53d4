// Package session holds the mutable state threaded through a preprocessing run.
package session

import (
	"fmt"
	"os"
)

const workingDirectoryErrorFormat = "unable to determine working directory: %w"

// Session carries the suppression flags and the directory used to resolve relative directive targets.
type Session struct {
	// Ignore suppresses every literal line until cleared.
	Ignore bool
	// IgnoreNext suppresses exactly the next candidate line.
	IgnoreNext bool
	// WorkingDirectory is the base for relative insert and include targets.
	WorkingDirectory string
}

// New returns a session with cleared flags. An empty workingDirectory selects the process working directory.
func New(workingDirectory string) (Session, error) {
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return Session{}, fmt.Errorf(workingDirectoryErrorFormat, err)
		}
		workingDirectory = currentDirectory
	}
	return Session{WorkingDirectory: workingDirectory}, nil
}

// Suppressed reports whether the next candidate line would be discarded.
func (session Session) Suppressed() bool {
	return session.Ignore || session.IgnoreNext
}

// ConsumeIgnoreNext clears IgnoreNext and reports whether it was set.
func (session *Session) ConsumeIgnoreNext() bool {
	wasSet := session.IgnoreNext
	session.IgnoreNext = false
	return wasSet
}

// Derive returns a copy for a nested run rooted at workingDirectory.
// The copy inherits the suppression flags; changes to it do not affect the receiver.
func (session Session) Derive(workingDirectory string) Session {
	derived := session
	derived.WorkingDirectory = workingDirectory
	return derived
}
