// Package engine runs the preprocessor over a sequence of input streams.
package engine

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/spp/internal/directive"
	"github.com/temirov/spp/internal/linebuffer"
	"github.com/temirov/spp/internal/session"
)

// DefaultMaxIncludeDepth bounds nested include directives when no limit is configured.
const DefaultMaxIncludeDepth = 64

// StandardInputName labels a source without a path in errors and logs.
const StandardInputName = "<stdin>"

const (
	missingReaderFormat     = "source %d has no reader"
	absolutePathFormat      = "abs failed for '%s': %w"
	invalidMaxDepthFormat   = "max include depth must not be negative, got %d"
	invalidLineBufferFormat = "line buffer: %w"
)

var (
	// ErrIncludeCycle is returned when a file includes itself directly or transitively.
	ErrIncludeCycle = errors.New("include cycle detected")
	// ErrIncludeDepthExceeded is returned when nested includes go deeper than the configured limit.
	ErrIncludeDepthExceeded = errors.New("include depth exceeded")
)

// Source is one already-opened input. An empty Path denotes standard input.
type Source struct {
	Reader io.Reader
	Path   string
}

// Name returns the path or StandardInputName.
func (source Source) Name() string {
	if source.Path == "" {
		return StandardInputName
	}
	return source.Path
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Registry *directive.Registry
	Logger   *zap.Logger
	// WorkingDirectory resolves relative targets found in standard input. Empty selects the process directory.
	WorkingDirectory string
	MaxIncludeDepth  int
	LineBuffer       linebuffer.Options
}

// Engine holds the immutable configuration of the preprocessor. Each Process call is an independent run.
type Engine struct {
	registry          *directive.Registry
	logger            *zap.Logger
	workingDirectory  string
	maxIncludeDepth   int
	lineBufferOptions linebuffer.Options
}

// New validates options and constructs an Engine.
func New(options Options) (*Engine, error) {
	if options.MaxIncludeDepth < 0 {
		return nil, fmt.Errorf(invalidMaxDepthFormat, options.MaxIncludeDepth)
	}
	if validationError := options.LineBuffer.Validate(); validationError != nil {
		return nil, fmt.Errorf(invalidLineBufferFormat, validationError)
	}
	registry := options.Registry
	if registry == nil {
		registry = directive.NewStandardRegistry()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxIncludeDepth := options.MaxIncludeDepth
	if maxIncludeDepth == 0 {
		maxIncludeDepth = DefaultMaxIncludeDepth
	}
	workingDirectory := options.WorkingDirectory
	if workingDirectory != "" {
		absoluteDirectory, absoluteError := filepath.Abs(workingDirectory)
		if absoluteError != nil {
			return nil, fmt.Errorf(absolutePathFormat, workingDirectory, absoluteError)
		}
		workingDirectory = absoluteDirectory
	}
	return &Engine{
		registry:          registry,
		logger:            logger,
		workingDirectory:  workingDirectory,
		maxIncludeDepth:   maxIncludeDepth,
		lineBufferOptions: options.LineBuffer,
	}, nil
}

// Process preprocesses every source in order into output.
//
// Suppression flags carry over from one source to the next. The working directory is reset for
// each source to the directory containing it, or to the engine default for standard input.
// The first failure stops the run; output already written is left in place.
func (engine *Engine) Process(sources []Source, output io.Writer) error {
	state, sessionError := session.New(engine.workingDirectory)
	if sessionError != nil {
		return sessionError
	}
	defaultDirectory := state.WorkingDirectory
	activeRun := newRun(engine, output)

	for sourceIndex, source := range sources {
		if source.Reader == nil {
			return fmt.Errorf(missingReaderFormat, sourceIndex)
		}
		if source.Path == "" {
			state.WorkingDirectory = defaultDirectory
			engine.logger.Debug("processing stdin")
			if processError := activeRun.processStream(source.Reader, source.Name(), &state); processError != nil {
				return processError
			}
			continue
		}

		absolutePath, absoluteError := filepath.Abs(source.Path)
		if absoluteError != nil {
			return fmt.Errorf(absolutePathFormat, source.Path, absoluteError)
		}
		state.WorkingDirectory = filepath.Dir(absolutePath)
		engine.logger.Debug("processing file", zap.String("path", source.Path))
		if processError := activeRun.processTracked(source.Reader, absolutePath, source.Name(), &state); processError != nil {
			return processError
		}
	}
	return nil
}
