package directive

import (
	"io"

	"github.com/temirov/spp/internal/session"
)

// Outcome describes how a behavior handled its invocation.
type Outcome int

const (
	// OutcomeApplied means the directive consumed its line.
	OutcomeApplied Outcome = iota
	// OutcomeInvalid means the argument was unusable and the line must be treated as literal text.
	OutcomeInvalid
)

// String returns the outcome name used in log fields.
func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeApplied:
		return "applied"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Includer processes a file recursively with its own session.
type Includer interface {
	Include(path string, nested session.Session) error
}

// Invocation is everything a behavior may read or mutate.
type Invocation struct {
	Argument string
	Session  *session.Session
	Output   io.Writer
	Includer Includer
}

// Behavior executes a directive. A non-nil error aborts the whole run.
type Behavior func(invocation Invocation) (Outcome, error)

// Entry binds a directive name to its behavior.
type Entry struct {
	Name     string
	Behavior Behavior
}

// Registry is an ordered name to behavior table. Lookup returns the first matching entry.
type Registry struct {
	entries []Entry
}

// NewRegistry returns a registry holding the given entries in order.
func NewRegistry(entries ...Entry) *Registry {
	return &Registry{entries: append([]Entry(nil), entries...)}
}

// Register appends a behavior under name.
func (registry *Registry) Register(name string, behavior Behavior) {
	registry.entries = append(registry.entries, Entry{Name: name, Behavior: behavior})
}

// Lookup finds the behavior registered under name using case-sensitive comparison.
func (registry *Registry) Lookup(name string) (Behavior, bool) {
	if registry == nil {
		return nil, false
	}
	for _, entry := range registry.entries {
		if entry.Name == name {
			return entry.Behavior, true
		}
	}
	return nil, false
}

// Names lists the registered names in lookup order.
func (registry *Registry) Names() []string {
	names := make([]string, 0, len(registry.entries))
	for _, entry := range registry.entries {
		names = append(names, entry.Name)
	}
	return names
}
