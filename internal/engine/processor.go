package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/spp/internal/directive"
	"github.com/temirov/spp/internal/linebuffer"
	"github.com/temirov/spp/internal/session"
)

const (
	readFailedFormat      = "read %s: %w"
	writeFailedFormat     = "write output: %w"
	lineFailedFormat      = "%s:%d: %w"
	directiveFailedFormat = "%s:%d: #%s: %w"
	openFailedFormat      = "open %s: %w"
)

// run is the per-invocation state of Engine.Process. It is also the Includer handed to directives.
type run struct {
	engine       *Engine
	output       io.Writer
	buffers      []*linebuffer.Buffer
	includeStack []string
	depth        int
}

func newRun(engine *Engine, output io.Writer) *run {
	return &run{engine: engine, output: output}
}

// Include processes path as a nested file.
func (activeRun *run) Include(path string, nested session.Session) error {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return fmt.Errorf(absolutePathFormat, path, absoluteError)
	}
	if activeRun.depth > activeRun.engine.maxIncludeDepth {
		return fmt.Errorf("%w: %s is nested deeper than %d levels", ErrIncludeDepthExceeded, absolutePath, activeRun.engine.maxIncludeDepth)
	}
	for _, activePath := range activeRun.includeStack {
		if activePath == absolutePath {
			return fmt.Errorf("%w: %s -> %s", ErrIncludeCycle, strings.Join(activeRun.includeStack, " -> "), absolutePath)
		}
	}

	// #nosec G304
	fileHandle, openError := os.Open(absolutePath)
	if openError != nil {
		return fmt.Errorf(openFailedFormat, absolutePath, openError)
	}
	defer fileHandle.Close()

	activeRun.engine.logger.Debug("including file", zap.String("path", absolutePath), zap.Int("depth", activeRun.depth))
	return activeRun.processTracked(fileHandle, absolutePath, path, &nested)
}

// processTracked processes a stream that has a file path, keeping the path on the include stack meanwhile.
func (activeRun *run) processTracked(reader io.Reader, absolutePath string, sourceName string, state *session.Session) error {
	activeRun.includeStack = append(activeRun.includeStack, absolutePath)
	defer func() {
		activeRun.includeStack = activeRun.includeStack[:len(activeRun.includeStack)-1]
	}()
	return activeRun.processStream(reader, sourceName, state)
}

// processStream reads reader byte by byte, completing a line at every newline and at a
// non-empty unterminated tail.
func (activeRun *run) processStream(reader io.Reader, sourceName string, state *session.Session) error {
	line := activeRun.bufferAt(activeRun.depth)
	line.Reset()
	activeRun.depth++
	defer func() {
		activeRun.depth--
	}()

	byteReader := bufio.NewReader(reader)
	lineNumber := 1
	for {
		value, readError := byteReader.ReadByte()
		if readError != nil {
			if errors.Is(readError, io.EOF) {
				break
			}
			return fmt.Errorf(readFailedFormat, sourceName, readError)
		}
		if value == '\n' {
			if lineError := activeRun.completeLine(line.Bytes(), true, sourceName, lineNumber, state); lineError != nil {
				return lineError
			}
			line.Reset()
			lineNumber++
			continue
		}
		if appendError := line.Append(value); appendError != nil {
			return fmt.Errorf(lineFailedFormat, sourceName, lineNumber, appendError)
		}
	}

	if line.Len() > 0 {
		lineError := activeRun.completeLine(line.Bytes(), false, sourceName, lineNumber, state)
		line.Reset()
		return lineError
	}
	return nil
}

func (activeRun *run) bufferAt(depth int) *linebuffer.Buffer {
	for len(activeRun.buffers) <= depth {
		activeRun.buffers = append(activeRun.buffers, linebuffer.New(activeRun.engine.lineBufferOptions))
	}
	return activeRun.buffers[depth]
}

// completeLine dispatches a recognized directive or writes the line as literal text.
// A registered directive on a line suppressed by ignore-next only consumes that suppression.
func (activeRun *run) completeLine(line []byte, terminated bool, sourceName string, lineNumber int, state *session.Session) error {
	if parsed, isDirective := directive.Scan(line); isDirective {
		if behavior, registered := activeRun.engine.registry.Lookup(parsed.Name); registered {
			if state.ConsumeIgnoreNext() {
				activeRun.engine.logger.Debug("directive suppressed",
					zap.String("source", sourceName),
					zap.Int("line", lineNumber),
					zap.String("name", parsed.Name),
				)
				return nil
			}
			outcome, behaviorError := behavior(directive.Invocation{
				Argument: parsed.Argument,
				Session:  state,
				Output:   activeRun.output,
				Includer: activeRun,
			})
			activeRun.engine.logger.Debug("directive",
				zap.String("source", sourceName),
				zap.Int("line", lineNumber),
				zap.String("name", parsed.Name),
				zap.String("argument", parsed.Argument),
				zap.Stringer("outcome", outcome),
			)
			if behaviorError != nil {
				return fmt.Errorf(directiveFailedFormat, sourceName, lineNumber, parsed.Name, behaviorError)
			}
			if outcome == directive.OutcomeApplied {
				return nil
			}
		}
	}
	return activeRun.writeLiteral(line, terminated, state)
}

func (activeRun *run) writeLiteral(line []byte, terminated bool, state *session.Session) error {
	suppressed := state.Suppressed()
	state.ConsumeIgnoreNext()
	if suppressed {
		return nil
	}
	if _, writeError := activeRun.output.Write(line); writeError != nil {
		return fmt.Errorf(writeFailedFormat, writeError)
	}
	if !terminated {
		return nil
	}
	if _, writeError := activeRun.output.Write([]byte{'\n'}); writeError != nil {
		return fmt.Errorf(writeFailedFormat, writeError)
	}
	return nil
}
